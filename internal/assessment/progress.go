package assessment

import (
	"fmt"

	"github.com/osvitacode/studybot/internal/catalog"
	"github.com/osvitacode/studybot/internal/session"
)

// Session payload keys. The payload survives a JSON round trip through the
// store, so readers go through session.Payload's tolerant accessors.
const (
	keySubjectKind   = "subject_kind"
	keySubjectID     = "subject_id"
	keyTopicID       = "topic_id"
	keyTotal         = "total_questions"
	keyIndex         = "question_index"
	keyCorrect       = "correct_count"
	keyPendingAnswer = "pending_answer"
	keyMessageID     = "message_id"
)

// progress is the decoded assessment payload.
type progress struct {
	Subject       catalog.Subject
	TopicID       int
	Total         int
	Index         int
	Correct       int
	PendingAnswer int
	MessageID     int64
}

func (p progress) payload() session.Payload {
	return session.Payload{
		keySubjectKind:   string(p.Subject.Kind),
		keySubjectID:     p.Subject.ID,
		keyTopicID:       p.TopicID,
		keyTotal:         p.Total,
		keyIndex:         p.Index,
		keyCorrect:       p.Correct,
		keyPendingAnswer: p.PendingAnswer,
		keyMessageID:     p.MessageID,
	}
}

func decodeProgress(pl session.Payload) (progress, error) {
	var p progress

	kind, ok := pl.String(keySubjectKind)
	if !ok {
		return p, fmt.Errorf("payload missing %q", keySubjectKind)
	}
	p.Subject.Kind = catalog.SubjectKind(kind)

	for _, f := range []struct {
		key string
		dst *int
	}{
		{keySubjectID, &p.Subject.ID},
		{keyTopicID, &p.TopicID},
		{keyTotal, &p.Total},
		{keyIndex, &p.Index},
		{keyCorrect, &p.Correct},
		{keyPendingAnswer, &p.PendingAnswer},
	} {
		v, ok := pl.Int(f.key)
		if !ok {
			return p, fmt.Errorf("payload missing %q", f.key)
		}
		*f.dst = v
	}

	p.MessageID, _ = pl.Int64(keyMessageID)
	return p, nil
}
