// Package gift drives a gift from amount entry through the UPI hand-off to the
// submission of the gift record.
//
// The client cannot observe whether the external payment app completed the
// transfer. The submitted transaction id is a local correlation token that the
// server has to trust.
package gift

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"smilegift/internal/models"
	"smilegift/internal/navigator"
	"smilegift/internal/notify"
	"smilegift/internal/observability"
)

var (
	// ErrDesktopDevice is returned when a UPI link is requested from a non-mobile device.
	ErrDesktopDevice = errors.New("UPI payments require a mobile device")
	// ErrInvalidTransition is returned when an operation is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid gift flow transition")
)

// Notification texts.
const (
	MsgDesktopOnly   = "UPI payments can only be made from mobile devices. Please open this page on your mobile phone to proceed with payment."
	MsgInvalidAmount = "Please enter a valid amount"
	MsgGiftSent      = "Gift sent successfully!"
	MsgGiftFailed    = "Failed to send gift"
)

// State of a Flow.
type State int

const (
	Idle State = iota
	AmountEntered
	LinkDispatched
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AmountEntered:
		return "amount_entered"
	case LinkDispatched:
		return "link_dispatched"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// GiftsClient records gift requests.
type GiftsClient interface {
	Create(ctx context.Context, in models.CreateGiftInput) (*models.Gift, error)
}

// Deps are the collaborators of a Flow.
type Deps struct {
	Gifts     GiftsClient
	Navigator navigator.Navigator
	Notifier  notify.Notifier
	UserAgent string
	// NewTransactionID defaults to NewTransactionID.
	NewTransactionID func() string
	// OnSuccess runs after a gift was recorded.
	OnSuccess func()
}

// Flow is the gift state machine for one post.
type Flow struct {
	postID    string
	recipient models.Author
	deps      Deps

	mu            sync.Mutex
	state         State
	amount        float64
	message       string
	transactionID string
}

// NewFlow starts an idle flow for post. The recipient is the post's resolved author.
func NewFlow(post *models.Post, deps Deps) *Flow {
	if deps.NewTransactionID == nil {
		deps.NewTransactionID = NewTransactionID
	}
	return &Flow{postID: post.ID, recipient: post.Author, deps: deps, amount: DefaultAmount}
}

// Enter records the amount and message. Allowed from Idle and AmountEntered.
func (f *Flow) Enter(amount float64, message string) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if err := ValidateMessage(message); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == LinkDispatched {
		return fmt.Errorf("%w: enter from %s", ErrInvalidTransition, f.state)
	}
	f.amount = amount
	f.message = message
	f.state = AmountEntered
	return nil
}

// Link returns the payment link for the entered amount.
func (f *Flow) Link() Link {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.link()
}

func (f *Flow) link() Link {
	payee := f.recipient.UpiID
	if payee == "" {
		payee = FallbackUPIID
	}
	return Link{
		PayeeID:   payee,
		PayeeName: f.recipient.FullName,
		Amount:    f.amount,
		Note:      Note(f.recipient.Username),
	}
}

// Dispatch hands the UPI link to the device's payment app. It is refused on
// non-mobile devices, in which case nothing is opened.
func (f *Flow) Dispatch(ctx context.Context) (string, error) {
	f.mu.Lock()
	if f.state != AmountEntered {
		state := f.state
		f.mu.Unlock()
		if state == Idle {
			f.deps.Notifier.Error(MsgInvalidAmount)
		}
		return "", fmt.Errorf("%w: dispatch from %s", ErrInvalidTransition, state)
	}
	if !IsMobileUserAgent(f.deps.UserAgent) {
		f.mu.Unlock()
		observability.GiftLinks.WithLabelValues("refused").Inc()
		f.deps.Notifier.Error(MsgDesktopOnly)
		return "", ErrDesktopDevice
	}
	link := f.link().String()
	txID := f.deps.NewTransactionID()
	f.mu.Unlock()

	if err := f.deps.Navigator.OpenExternal(ctx, link); err != nil {
		observability.GiftLinks.WithLabelValues("error").Inc()
		return "", err
	}

	f.mu.Lock()
	f.transactionID = txID
	f.state = LinkDispatched
	f.mu.Unlock()

	observability.GiftLinks.WithLabelValues("dispatched").Inc()
	return link, nil
}

// Submit records the gift with the server. It does not depend on Dispatch
// having succeeded; without a dispatched link a placeholder id is sent.
func (f *Flow) Submit(ctx context.Context) (*models.Gift, error) {
	f.mu.Lock()
	if f.state == Idle {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, Idle)
	}
	in := models.CreateGiftInput{
		PostID:        f.postID,
		Amount:        f.amount,
		TransactionID: f.transactionID,
		Message:       f.message,
	}
	f.mu.Unlock()
	if in.TransactionID == "" {
		in.TransactionID = ManualTransactionID
	}

	gift, err := f.deps.Gifts.Create(ctx, in)
	if err != nil {
		f.deps.Notifier.Error(models.MessageOr(err, MsgGiftFailed))
		return nil, err
	}

	f.Reset()
	f.deps.Notifier.Success(MsgGiftSent)
	if f.deps.OnSuccess != nil {
		f.deps.OnSuccess()
	}
	return gift, nil
}

// Reset returns the flow to Idle with the default amount.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Idle
	f.amount = DefaultAmount
	f.message = ""
	f.transactionID = ""
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Amount returns the entered amount, or the suggested default.
func (f *Flow) Amount() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amount
}

// TransactionID returns the id generated by the last dispatch, if any.
func (f *Flow) TransactionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transactionID
}

// Recipient is the author who receives the gift.
func (f *Flow) Recipient() models.Author {
	return f.recipient
}
