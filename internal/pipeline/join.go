package pipeline

import "github.com/theirongolddev/tutstat/internal/model"

// Join denormalizes sessions against tutorials and tags. It is a left
// join: every session appears once, in input order, and unresolved
// tutorial or tag references are left nil.
func Join(ds *model.Dataset, sessions []model.Session) []model.JoinedSession {
	joined := make([]model.JoinedSession, len(sessions))
	for i, s := range sessions {
		joined[i].Session = s
		tut, ok := ds.Tutorial(s.TutorialID)
		if !ok {
			continue
		}
		joined[i].Tutorial = &tut
		if tag, ok := ds.Tag(tut.TagID); ok {
			joined[i].Tag = &tag
		}
	}
	return joined
}
