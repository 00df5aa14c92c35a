package notify

import (
	"fmt"
	"unicode/utf8"

	"github.com/dalemusser/pathway/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind is the closed set of domain events that produce notifications.
type Kind string

const (
	NewMessage          Kind = "new_message"
	AssignmentCompleted Kind = "assignment_completed"
	WeekCompleted       Kind = "week_completed"
	CovenantSigned      Kind = "covenant_signed"
	CovenantComplete    Kind = "covenant_complete"
	PairingCreated      Kind = "pairing_created"
	LearnerJoined       Kind = "learner_joined"
	WeekUnlocked        Kind = "week_unlocked"
	Encouragement       Kind = "encouragement"
)

// previewLimit is the number of characters of a message shown in its
// notification.
const previewLimit = 100

// Event is a domain event addressed to one or more recipients.
//
// ActorName is the person the notification is about (the sender, the
// signer, the partner). The remaining fields are used only by the kinds
// that mention them.
type Event struct {
	Kind       Kind
	PairingID  primitive.ObjectID
	Recipients []string

	ActorName       string
	AssignmentTitle string
	WeekNumber      int
	WeekTitle       string
	Text            string // message body or encouragement text
}

// rendered is the user-facing form of an event.
type rendered struct {
	typ   models.NotificationType
	title string
	body  string
}

func render(e Event) (rendered, error) {
	actor := e.ActorName
	if actor == "" {
		actor = "Your partner"
	}
	switch e.Kind {
	case NewMessage:
		return rendered{models.NotificationMessage,
			"New message from " + actor,
			preview(e.Text)}, nil
	case AssignmentCompleted:
		return rendered{models.NotificationAssignment,
			actor + " completed an assignment",
			fmt.Sprintf("Week %d: %q has been marked as complete.", e.WeekNumber, e.AssignmentTitle)}, nil
	case WeekCompleted:
		return rendered{models.NotificationWeekComplete,
			fmt.Sprintf("Week %d completed!", e.WeekNumber),
			fmt.Sprintf("%s has completed all assignments for %s.", actor, weekLabel(e))}, nil
	case CovenantSigned:
		return rendered{models.NotificationCovenant,
			actor + " signed the covenant",
			"Your partner has signed the discipleship covenant. Sign yours to begin the journey!"}, nil
	case CovenantComplete:
		return rendered{models.NotificationCovenant,
			"Covenant Complete!",
			fmt.Sprintf("Both you and %s have signed. Your discipleship journey begins now!", actor)}, nil
	case PairingCreated:
		return rendered{models.NotificationPairing,
			"You have been paired!",
			fmt.Sprintf("%s has accepted you as their Learner. Sign the covenant to begin your journey.", actor)}, nil
	case LearnerJoined:
		return rendered{models.NotificationPairing,
			actor + " joined your journey",
			fmt.Sprintf("%s has used your invite code and is ready to begin. Sign the covenant together to start.", actor)}, nil
	case WeekUnlocked:
		return rendered{models.NotificationWeekComplete,
			fmt.Sprintf("Week %d Unlocked!", e.WeekNumber),
			fmt.Sprintf("Congratulations! You can now begin %s.", weekLabel(e))}, nil
	case Encouragement:
		return rendered{models.NotificationEncouragement,
			"Encouragement from " + actor,
			preview(e.Text)}, nil
	}
	return rendered{}, fmt.Errorf("notify: unknown event kind %q", e.Kind)
}

// weekLabel quotes the week title, falling back to the number.
func weekLabel(e Event) string {
	if e.WeekTitle == "" {
		return fmt.Sprintf("week %d", e.WeekNumber)
	}
	return fmt.Sprintf("%q", e.WeekTitle)
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLimit {
		return s
	}
	r := []rune(s)
	return string(r[:previewLimit]) + "..."
}
