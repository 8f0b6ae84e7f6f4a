// Package chat runs one chat turn end to end: quota gate, classification,
// persistence of the exchange, audit logging and the reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zulandar/galley/internal/alert"
	"github.com/zulandar/galley/internal/classify"
	"github.com/zulandar/galley/internal/conversation"
	"github.com/zulandar/galley/internal/genlog"
	"github.com/zulandar/galley/internal/models"
	"github.com/zulandar/galley/internal/quota"
	"gorm.io/gorm"
)

// Replacement outcome used when the classifier could not answer.
const (
	failureTitle    = "Something Went Wrong"
	failureOverview = "We couldn't process your request right now. Please try again."
)

// DefaultAlertTimeout bounds alert delivery on the request path.
const DefaultAlertTimeout = 5 * time.Second

// Classifier sorts a chat turn into an outcome.
type Classifier interface {
	Classify(ctx context.Context, message string, history []classify.HistoryLine) (classify.Outcome, error)
}

// Request is one inbound chat turn.
type Request struct {
	UserID    string
	Email     string
	Message   string
	SessionID string // empty starts a new session
	Title     string // used only when a session is created
}

// Response is the reply to a chat turn. Exactly one details field is set.
type Response struct {
	ResponseType        classify.Kind            `json:"response_type"`
	ConversationDetails *classify.Conversation   `json:"conversation_details,omitempty"`
	RecipeDetails       *classify.Recipe         `json:"recipe_details,omitempty"`
	ErrorDetails        *classify.InvalidRequest `json:"error_details,omitempty"`
	ChatID              string                   `json:"chat_id"`
}

// Opts holds the collaborators of an Orchestrator.
type Opts struct {
	Store      *conversation.Store
	Quota      *quota.Gate
	Log        *genlog.Log
	Classifier Classifier
	Alerts     alert.Notifier     // optional
	Logger     logrus.FieldLogger // optional

	// AlertTimeout bounds one alert delivery; defaults to DefaultAlertTimeout.
	AlertTimeout time.Duration
}

// Orchestrator handles chat turns. It is safe for concurrent use.
type Orchestrator struct {
	store      *conversation.Store
	quota      *quota.Gate
	log        *genlog.Log
	classifier Classifier
	alerts     alert.Notifier
	logger     logrus.FieldLogger

	alertTimeout time.Duration
}

// New creates an Orchestrator.
func New(opts Opts) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("chat: store is required")
	}
	if opts.Quota == nil {
		return nil, fmt.Errorf("chat: quota gate is required")
	}
	if opts.Log == nil {
		return nil, fmt.Errorf("chat: generation log is required")
	}
	if opts.Classifier == nil {
		return nil, fmt.Errorf("chat: classifier is required")
	}
	o := &Orchestrator{
		store:      opts.Store,
		quota:      opts.Quota,
		log:        opts.Log,
		classifier: opts.Classifier,
		alerts:     opts.Alerts,
		logger:     opts.Logger,

		alertTimeout: opts.AlertTimeout,
	}
	if o.alertTimeout <= 0 {
		o.alertTimeout = DefaultAlertTimeout
	}
	if o.logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		o.logger = l
	}
	if o.alerts == nil {
		o.alerts = alert.NewLogNotifier(o.logger)
	}
	return o, nil
}

// Send runs one chat turn. Every failure is a *Error; a classifier fault
// is not a failure and comes back as an error-kind Response.
func (o *Orchestrator) Send(ctx context.Context, req Request) (*Response, error) {
	log := o.logger.WithFields(logrus.Fields{"user_id": req.UserID, "chat_id": req.SessionID})
	reject := func(err *Error) (*Response, error) {
		entry := log.WithFields(logrus.Fields{"state": StateRejected, "reason": err.Kind.String()})
		if err.Err != nil {
			entry = entry.WithError(err.Err)
		}
		if err.Kind == KindPersistence {
			entry.Error(err.Msg)
		} else {
			entry.Info(err.Msg)
		}
		return nil, err
	}

	// Received.
	if req.UserID == "" {
		return reject(validationError(msgMissingUser, nil))
	}
	if strings.TrimSpace(req.Message) == "" {
		return reject(validationError(msgEmptyMessage, nil))
	}
	var history []models.ChatMessage
	if req.SessionID != "" {
		if _, err := o.store.Session(ctx, req.SessionID, req.UserID); err != nil {
			if errors.Is(err, conversation.ErrSessionNotFound) {
				return reject(validationError(msgChatNotFound, err))
			}
			return reject(persistenceError(err))
		}
		msgs, err := o.store.Messages(ctx, req.SessionID)
		if err != nil {
			return reject(persistenceError(err))
		}
		history = msgs
	}

	// QuotaChecked.
	if _, err := o.quota.Ensure(ctx, req.UserID, req.Email); err != nil {
		return reject(persistenceError(err))
	}
	decision, err := o.quota.Check(ctx, req.UserID)
	if err != nil {
		return reject(persistenceError(err))
	}
	if !decision.Allowed {
		return reject(o.quotaError(nil))
	}
	log.WithField("state", StateQuotaChecked).Debug("quota ok")

	// Classified.
	lines := make([]classify.HistoryLine, 0, len(history)+1)
	for _, m := range history {
		lines = append(lines, MessageToHistoryLine(m))
	}
	lines = append(lines, classify.HistoryLine{Sender: models.SenderUser, Content: req.Message})

	outcome, err := o.classifier.Classify(ctx, req.Message, lines)
	if err == nil && outcome == nil {
		err = &classify.Failure{Reason: classify.ReasonEmpty}
	}
	if err != nil {
		outcome = o.classificationFailed(ctx, log, req, err)
	}
	if recipe, ok := outcome.(*classify.Recipe); ok && len(recipe.IngredientItems) == 0 {
		recipe.IngredientItems = DeriveIngredientItems(recipe.Ingredients)
	}
	log.WithFields(logrus.Fields{"state": StateClassified, "kind": outcome.Kind()}).Debug("classified")

	// Persisted. The caller may hang up from here on without undoing work.
	pctx := context.WithoutCancel(ctx)
	chatID, err := o.persist(pctx, req, outcome)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return reject(e)
		}
		return reject(persistenceError(err))
	}
	log = log.WithField("chat_id", chatID)
	log.WithField("state", StatePersisted).Debug("exchange saved")
	o.record(pctx, log, req, chatID, outcome)

	// Responded.
	resp := buildResponse(outcome, chatID)
	log.WithFields(logrus.Fields{"state": StateResponded, "response_type": resp.ResponseType}).Info("chat turn complete")
	return resp, nil
}

// persist writes the user message and the assistant reply in one
// transaction, committing the quota for recipes.
func (o *Orchestrator) persist(ctx context.Context, req Request, outcome classify.Outcome) (string, error) {
	reply, err := assistantMessage(outcome)
	if err != nil {
		return "", err
	}

	if req.SessionID != "" {
		unlock := o.store.Lock(req.SessionID)
		defer unlock()
	}

	var chatID string
	err = o.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := o.store.GetOrCreateTx(tx, req.SessionID, req.UserID, req.Title)
		if err != nil {
			return err
		}
		if outcome.Kind() == classify.KindRecipe {
			if err := o.quota.Commit(ctx, tx, req.UserID); err != nil {
				return err
			}
		}
		userMsg := conversation.Text(models.SenderUser, models.KindConversation, req.Message)
		if _, err := o.store.AppendTx(tx, sess.ID, userMsg, reply); err != nil {
			return err
		}
		chatID = sess.ID
		return nil
	})
	switch {
	case err == nil:
		return chatID, nil
	case errors.Is(err, quota.ErrQuotaExceeded):
		o.quota.Release(req.UserID)
		return "", o.quotaError(err)
	case errors.Is(err, conversation.ErrSessionNotFound):
		return "", validationError(msgChatNotFound, err)
	default:
		return "", persistenceError(err)
	}
}

// assistantMessage builds the stored reply for an outcome.
func assistantMessage(outcome classify.Outcome) (models.ChatMessage, error) {
	switch out := outcome.(type) {
	case *classify.Conversation:
		if len(out.ItemsList) == 0 {
			return conversation.Text(models.SenderAssistant, models.KindConversation, out.Response), nil
		}
		return conversation.Payload(models.SenderAssistant, models.KindConversation, out)
	case *classify.Recipe:
		return conversation.Payload(models.SenderAssistant, models.KindRecipe, out)
	case *classify.InvalidRequest:
		return conversation.Payload(models.SenderAssistant, models.KindError, out)
	default:
		return models.ChatMessage{}, fmt.Errorf("chat: unknown outcome %T", outcome)
	}
}

// record writes the audit entry for recipe and error outcomes. A failed
// write does not fail the turn.
func (o *Orchestrator) record(ctx context.Context, log logrus.FieldLogger, req Request, chatID string, outcome classify.Outcome) {
	var rec *models.GenerationRecord
	switch out := outcome.(type) {
	case *classify.Recipe:
		rec = genlog.FromRecipe(req.UserID, req.Email, out)
	case *classify.InvalidRequest:
		rec = genlog.FromInvalidRequest(req.UserID, req.Email, out)
	default:
		return
	}
	if err := o.log.Record(ctx, rec); err != nil {
		log.WithError(err).Error("generation log write failed")
		o.notify(ctx, alert.Alert{
			Title:    "Generation log write failed",
			Body:     err.Error(),
			Severity: alert.SeverityCritical,
			Fields: []alert.Field{
				{Name: "user_id", Value: req.UserID, Short: true},
				{Name: "chat_id", Value: chatID, Short: true},
				{Name: "title", Value: rec.Title},
			},
		})
	}
}

// classificationFailed replaces a classifier fault with an error outcome
// and raises an alert.
func (o *Orchestrator) classificationFailed(ctx context.Context, log logrus.FieldLogger, req Request, err error) classify.Outcome {
	reason := "unknown"
	if f, ok := classify.AsFailure(err); ok {
		reason = string(f.Reason)
	}
	log.WithError(err).WithField("reason", reason).Warn("classification failed")
	o.notify(context.WithoutCancel(ctx), alert.Alert{
		Title:    "Classification failed",
		Body:     err.Error(),
		Severity: alert.SeverityWarning,
		Fields: []alert.Field{
			{Name: "user_id", Value: req.UserID, Short: true},
			{Name: "reason", Value: reason, Short: true},
		},
	})
	return &classify.InvalidRequest{
		Title:           failureTitle,
		Overview:        failureOverview,
		IngredientItems: []string{},
	}
}

func (o *Orchestrator) notify(ctx context.Context, a alert.Alert) {
	ctx, cancel := context.WithTimeout(ctx, o.alertTimeout)
	defer cancel()
	if err := o.alerts.Notify(ctx, a); err != nil {
		o.logger.WithError(err).WithField("alert", a.Title).Warn("alert delivery failed")
	}
}

func (o *Orchestrator) quotaError(err error) *Error {
	return &Error{
		Kind: KindQuotaExceeded,
		Msg:  fmt.Sprintf(msgQuotaExceeded, o.quota.Ceiling()),
		Err:  err,
	}
}

func buildResponse(outcome classify.Outcome, chatID string) *Response {
	resp := &Response{ResponseType: outcome.Kind(), ChatID: chatID}
	switch out := outcome.(type) {
	case *classify.Conversation:
		resp.ConversationDetails = out
	case *classify.Recipe:
		resp.RecipeDetails = out
	case *classify.InvalidRequest:
		resp.ErrorDetails = out
	}
	return resp
}
