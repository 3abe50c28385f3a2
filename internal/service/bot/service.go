package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"chatbot-backend/internal/database"
	internaljwt "chatbot-backend/internal/jwt"
	"chatbot-backend/internal/lib/validate"
	"chatbot-backend/internal/model"
	"chatbot-backend/internal/service/analytics"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "validation_error"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeNotFound     ErrorCode = "not_found"
	ErrorCodeInternal     ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

type Identity struct {
	UserID string
	Email  string
}

// Definition is the authored part of a bot.
type Definition struct {
	Name        string                 `validate:"required,max=100"`
	Description string                 `validate:"max=500"`
	Config      map[string]interface{} `validate:"omitempty"`
	Intents     []model.IntentItem     `validate:"dive"`
	Flows       []model.FlowItem       `validate:"dive"`
}

type Deployment struct {
	Bot           model.BotItem
	DeploymentURL string
	EmbedCode     string
}

// Widget is what the embeddable widget needs to render a deployed bot.
type Widget struct {
	BotID          string
	Name           string
	Avatar         string
	WelcomeMessage string
	Theme          map[string]interface{}
}

type AnalyticsReport struct {
	Bot    model.BotItem
	Report analytics.Report
}

type ReportReader interface {
	Report(ctx context.Context, botID string, days int) (analytics.Report, error)
}

type Service struct {
	repo    Repository
	reports ReportReader
	baseURL string
	now     func() time.Time
}

func New(db *database.Database, reports ReportReader, baseURL string) *Service {
	return NewWithRepository(NewDynamoRepository(db), reports, baseURL, time.Now)
}

func NewWithRepository(repo Repository, reports ReportReader, baseURL string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:    repo,
		reports: reports,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     now,
	}
}

func (s *Service) IdentityFromAuthorizationHeader(header string) (Identity, error) {
	user, err := internaljwt.UserFromAuthorizationHeader(header, internaljwt.RoleUser)
	if err != nil {
		return Identity{}, newError(ErrorCodeUnauthorized, "Unauthorized", err)
	}
	return Identity{UserID: user.Id, Email: user.Email}, nil
}

func (s *Service) Get(ctx context.Context, identity Identity, botID string) (model.BotItem, error) {
	return s.ownedBot(ctx, identity, botID)
}

// Create stores a new DRAFT bot owned by the caller.
func (s *Service) Create(ctx context.Context, identity Identity, def Definition) (model.BotItem, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return model.BotItem{}, newError(ErrorCodeUnauthorized, "Unauthorized", nil)
	}
	def, err := checkDefinition(def)
	if err != nil {
		return model.BotItem{}, err
	}

	now := s.timestamp()
	bot := model.BotItem{
		BotID:       uuid.NewString(),
		OwnerID:     identity.UserID,
		Name:        def.Name,
		Description: def.Description,
		Status:      model.BotStatusDraft,
		Config:      def.Config,
		Intents:     def.Intents,
		Flows:       def.Flows,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if bot.Config == nil {
		bot.Config = map[string]interface{}{}
	}
	if err := s.repo.CreateBot(ctx, bot); err != nil {
		return model.BotItem{}, newError(ErrorCodeInternal, "Failed to create bot", err)
	}
	return bot, nil
}

// List returns the caller's bots, most recently updated first.
func (s *Service) List(ctx context.Context, identity Identity) ([]model.BotItem, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return nil, newError(ErrorCodeUnauthorized, "Unauthorized", nil)
	}

	bots, err := s.repo.ListBotsByOwner(ctx, identity.UserID)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "Failed to load bots", err)
	}
	sort.SliceStable(bots, func(i, j int) bool {
		return bots[i].UpdatedAt > bots[j].UpdatedAt
	})
	return bots, nil
}

// Delete removes a bot owned by the caller. Its conversations stay in place
// but can no longer be reached through the chat endpoint.
func (s *Service) Delete(ctx context.Context, identity Identity, botID string) error {
	if _, err := s.ownedBot(ctx, identity, botID); err != nil {
		return err
	}
	if err := s.repo.DeleteBot(ctx, strings.TrimSpace(botID)); err != nil {
		return s.repoError(err)
	}
	return nil
}

// SaveDefinition validates and stores the authored parts of a bot owned by
// the caller. Status changes go through Deploy and Undeploy.
func (s *Service) SaveDefinition(ctx context.Context, identity Identity, botID string, def Definition) (model.BotItem, error) {
	def, err := checkDefinition(def)
	if err != nil {
		return model.BotItem{}, err
	}

	if _, err := s.ownedBot(ctx, identity, botID); err != nil {
		return model.BotItem{}, err
	}

	bot, err := s.repo.UpdateDefinition(ctx, botID, def, s.timestamp())
	if err != nil {
		return model.BotItem{}, s.repoError(err)
	}
	return bot, nil
}

func (s *Service) Deploy(ctx context.Context, identity Identity, botID string) (Deployment, error) {
	if _, err := s.ownedBot(ctx, identity, botID); err != nil {
		return Deployment{}, err
	}

	deploymentURL := fmt.Sprintf("%s/embed/%s", s.baseURL, botID)
	bot, err := s.repo.UpdateDeployment(ctx, botID, model.BotStatusDeployed, deploymentURL, s.timestamp())
	if err != nil {
		return Deployment{}, s.repoError(err)
	}

	return Deployment{
		Bot:           bot,
		DeploymentURL: deploymentURL,
		EmbedCode:     fmt.Sprintf(`<script src="%s/embed/%s/widget.js"></script>`, s.baseURL, botID),
	}, nil
}

func (s *Service) Undeploy(ctx context.Context, identity Identity, botID string) (model.BotItem, error) {
	if _, err := s.ownedBot(ctx, identity, botID); err != nil {
		return model.BotItem{}, err
	}

	bot, err := s.repo.UpdateDeployment(ctx, botID, model.BotStatusPublished, "", s.timestamp())
	if err != nil {
		return model.BotItem{}, s.repoError(err)
	}
	return bot, nil
}

func (s *Service) Analytics(ctx context.Context, identity Identity, botID string, days int) (AnalyticsReport, error) {
	bot, err := s.ownedBot(ctx, identity, botID)
	if err != nil {
		return AnalyticsReport{}, err
	}
	if s.reports == nil {
		return AnalyticsReport{}, newError(ErrorCodeInternal, "Analytics are not available", nil)
	}

	report, err := s.reports.Report(ctx, botID, days)
	if err != nil {
		return AnalyticsReport{}, newError(ErrorCodeInternal, "Failed to load analytics", err)
	}
	return AnalyticsReport{Bot: bot, Report: report}, nil
}

// PublicWidget returns the widget settings of a deployed bot. Bots that are
// not deployed look exactly like missing ones.
func (s *Service) PublicWidget(ctx context.Context, botID string) (Widget, error) {
	botID = strings.TrimSpace(botID)
	if botID == "" {
		return Widget{}, newError(ErrorCodeNotFound, "Bot not found or not deployed", nil)
	}

	bot, err := s.repo.GetBot(ctx, botID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Widget{}, newError(ErrorCodeNotFound, "Bot not found or not deployed", err)
		}
		return Widget{}, newError(ErrorCodeInternal, "Failed to load bot", err)
	}
	if bot.Status != model.BotStatusDeployed {
		return Widget{}, newError(ErrorCodeNotFound, "Bot not found or not deployed", nil)
	}

	theme, _ := bot.Config[model.ConfigTheme].(map[string]interface{})
	if theme == nil {
		theme = map[string]interface{}{}
	}
	return Widget{
		BotID:          bot.BotID,
		Name:           bot.Name,
		Avatar:         bot.ConfigString(model.ConfigAvatar),
		WelcomeMessage: bot.ConfigString(model.ConfigWelcomeMessage),
		Theme:          theme,
	}, nil
}

func (s *Service) ownedBot(ctx context.Context, identity Identity, botID string) (model.BotItem, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return model.BotItem{}, newError(ErrorCodeUnauthorized, "Unauthorized", nil)
	}
	botID = strings.TrimSpace(botID)
	if botID == "" {
		return model.BotItem{}, newError(ErrorCodeNotFound, "Bot not found", nil)
	}

	bot, err := s.repo.GetBot(ctx, botID)
	if err != nil {
		return model.BotItem{}, s.repoError(err)
	}
	if bot.OwnerID != identity.UserID {
		return model.BotItem{}, newError(ErrorCodeNotFound, "Bot not found", nil)
	}
	return bot, nil
}

func (s *Service) repoError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return newError(ErrorCodeNotFound, "Bot not found", err)
	}
	return newError(ErrorCodeInternal, "Internal server error", err)
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func checkDefinition(def Definition) (Definition, error) {
	def.Name = strings.TrimSpace(def.Name)
	def.Description = strings.TrimSpace(def.Description)
	if err := validate.Struct(def); err != nil {
		return def, newError(ErrorCodeValidation, err.Error(), err)
	}
	if err := checkFlows(def.Flows); err != nil {
		return def, newError(ErrorCodeValidation, err.Error(), err)
	}
	return def, nil
}

// checkFlows rejects duplicate flow ids and duplicate step ids within a flow.
// A next-step id that names no step is allowed: the flow just ends there.
func checkFlows(flows []model.FlowItem) error {
	flowIDs := make(map[string]struct{}, len(flows))
	for _, flow := range flows {
		if _, dup := flowIDs[flow.ID]; dup {
			return fmt.Errorf("duplicate flow id %q", flow.ID)
		}
		flowIDs[flow.ID] = struct{}{}

		steps := make(map[string]struct{}, len(flow.Steps))
		for _, step := range flow.Steps {
			if _, dup := steps[step.ID]; dup {
				return fmt.Errorf("flow %q: duplicate step id %q", flow.ID, step.ID)
			}
			steps[step.ID] = struct{}{}
		}
	}
	return nil
}
