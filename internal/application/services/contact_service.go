package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
)

// ContactService builds WhatsApp deep links and records the contact attempt
type ContactService struct {
	institutions  repositories.InstitutionRepository
	services      repositories.ServiceRepository
	interactions  repositories.InteractionRepository
	presenter     *Presenter
	fallbackPhone string
	metrics       *observability.Metrics
}

// NewContactService creates a new contact service. fallbackPhone is used when
// an institution has no WhatsApp number; metrics may be nil.
func NewContactService(
	institutions repositories.InstitutionRepository,
	services repositories.ServiceRepository,
	interactions repositories.InteractionRepository,
	presenter *Presenter,
	fallbackPhone string,
	metrics *observability.Metrics,
) *ContactService {
	return &ContactService{
		institutions:  institutions,
		services:      services,
		interactions:  interactions,
		presenter:     presenter,
		fallbackPhone: fallbackPhone,
		metrics:       metrics,
	}
}

// ContactService returns the deep link for asking an institution about one
// of its services, named in lang.
func (s *ContactService) ContactService(ctx context.Context, serviceID, lang string) (*entities.ContactLink, error) {
	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	inst, err := s.institutions.GetByID(ctx, svc.InstitutionID)
	if err != nil {
		return nil, err
	}

	name, _ := ResolveText(svc.Translations, lang)
	link := s.link(inst, ServiceContactMessage(inst.ID, name))

	s.record(ctx, inst.ID, &svc.ID, "service")
	return link, nil
}

// ContactInstitution returns the deep link for greeting an institution
func (s *ContactService) ContactInstitution(ctx context.Context, institutionID string) (*entities.ContactLink, error) {
	inst, err := s.institutions.GetByID(ctx, institutionID)
	if err != nil {
		return nil, err
	}

	link := s.link(inst, InstitutionContactMessage(inst.Name))

	s.record(ctx, inst.ID, nil, "institution")
	return link, nil
}

func (s *ContactService) link(inst *entities.Institution, message string) *entities.ContactLink {
	phone := DigitsOnly(inst.WhatsAppNumber)
	if phone == "" {
		phone = DigitsOnly(s.fallbackPhone)
	}
	return &entities.ContactLink{
		URL:     s.presenter.ContactLink(phone, message),
		Phone:   phone,
		Message: message,
	}
}

// record stores the interaction. Failures are logged and never reach the caller.
func (s *ContactService) record(ctx context.Context, institutionID string, serviceID *string, target string) {
	if s.metrics != nil {
		observability.RecordContactLink(ctx, s.metrics, target)
	}

	interaction := &entities.Interaction{
		ID:        uuid.NewString(),
		CompanyID: institutionID,
		ServiceID: serviceID,
		Channel:   entities.ContactChannelWhatsApp,
	}
	if err := s.interactions.Create(ctx, interaction); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("institution_id", institutionID).
			Msg("failed to record interaction")
	}
}
