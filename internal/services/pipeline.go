package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/events"
	"theater-warehouse/internal/repositories"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/eventbus"
	"theater-warehouse/pkg/metrics"
	"theater-warehouse/pkg/utils"
)

type MutationStage string

const (
	StageReceived   MutationStage = "received"
	StageAuthorized MutationStage = "authorized"
	StageValidated  MutationStage = "validated"
	StagePersisted  MutationStage = "persisted"
	StageAudited    MutationStage = "audited"
	StageCompleted  MutationStage = "completed"
	StageRejected   MutationStage = "rejected"
)

// Mutation описывает одну изменяющую операцию.
// Persist возвращает черновик записи истории; nil означает, что операция не журналируется.
type Mutation struct {
	Name       string
	Capability authz.Capability
	Validate   func(ctx context.Context, actor *authz.Actor) error
	Persist    func(ctx context.Context, actor *authz.Actor) (*entities.HistoryEntry, error)
}

// AuditError - изменение сохранено, но запись истории не добавлена.
// Пайплайн хранит его по ID до успешного RetryPendingAudit.
type AuditError struct {
	ID       string
	Mutation string
	Entry    entities.HistoryEntry
	FailedAt time.Time
	Err      error
}

// PendingAudit - незаписанная запись истории в виде для API.
type PendingAudit struct {
	ID       string                `json:"id"`
	Mutation string                `json:"mutation"`
	Entry    entities.HistoryEntry `json:"entry"`
	FailedAt time.Time             `json:"failed_at"`
	Reason   string                `json:"reason"`
}

type AuditRetrierInterface interface {
	PendingAudits(ctx context.Context) ([]PendingAudit, error)
	RetryPendingAudit(ctx context.Context, id string) (*entities.HistoryEntry, error)
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("мутация %s сохранена, но история не записана: %v", e.Mutation, e.Err)
}

func (e *AuditError) Unwrap() error { return e.Err }

type MutationPipeline struct {
	gatekeeper *authz.Gatekeeper
	history    repositories.HistoryRepositoryInterface
	metrics    *metrics.Metrics
	bus        *eventbus.Bus
	logger     *zap.Logger

	pendingMu sync.Mutex
	pending   map[string]*AuditError
}

func NewMutationPipeline(
	gatekeeper *authz.Gatekeeper,
	history repositories.HistoryRepositoryInterface,
	m *metrics.Metrics,
	logger *zap.Logger,
) *MutationPipeline {
	return &MutationPipeline{
		gatekeeper: gatekeeper,
		history:    history,
		metrics:    m,
		logger:     logger,
		pending:    make(map[string]*AuditError),
	}
}

// WithEventBus включает публикацию MutationCompletedEvent после каждой завершённой мутации.
func (p *MutationPipeline) WithEventBus(bus *eventbus.Bus) *MutationPipeline {
	p.bus = bus
	return p
}

func (p *MutationPipeline) publish(ctx context.Context, name string, actor *authz.Actor, entry *entities.HistoryEntry) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(ctx, events.MutationCompletedEvent{Mutation: name, Actor: *actor, Entry: entry})
}

// Run проводит мутацию по стадиям Received -> Authorized -> Validated -> Persisted -> Audited -> Completed.
// Первая упавшая стадия возвращает свою ошибку как есть. Сбой аудита не откатывает сохранённые данные.
func (p *MutationPipeline) Run(ctx context.Context, m Mutation) (*entities.HistoryEntry, error) {
	log := p.logger.With(zap.String("mutation", m.Name), zap.String("requestID", utils.GetRequestIDFromContext(ctx)))
	log.Debug("стадия", zap.String("stage", string(StageReceived)))

	actor, err := utils.GetActorFromContext(ctx)
	if err != nil {
		return nil, p.reject(log, m.Name, StageAuthorized, apperrors.ErrUnauthorized)
	}
	if err := p.gatekeeper.Authorize(actor, m.Capability); err != nil {
		return nil, p.reject(log, m.Name, StageAuthorized, err)
	}
	log = log.With(zap.Uint64("userID", actor.UserID))
	log.Debug("стадия", zap.String("stage", string(StageAuthorized)))

	if m.Validate != nil {
		if err := m.Validate(ctx, actor); err != nil {
			return nil, p.reject(log, m.Name, StageValidated, err)
		}
	}
	log.Debug("стадия", zap.String("stage", string(StageValidated)))

	draft, err := m.Persist(ctx, actor)
	if err != nil {
		if isRejection(err) {
			return nil, p.reject(log, m.Name, StagePersisted, err)
		}
		p.metrics.ObserveMutation(m.Name, "failed")
		log.Error("не удалось сохранить изменение", zap.Error(err))
		return nil, err
	}
	log.Debug("стадия", zap.String("stage", string(StagePersisted)))

	if draft == nil {
		p.metrics.ObserveMutation(m.Name, string(StageCompleted))
		log.Info("мутация выполнена")
		p.publish(ctx, m.Name, actor, nil)
		return nil, nil
	}

	draft.UserID = actor.UserID
	entry, err := p.history.AppendHistory(ctx, *draft)
	if err != nil {
		p.metrics.ObserveAuditFailure(m.Name)
		p.metrics.ObserveMutation(m.Name, "audit_failed")
		log.Error("изменение сохранено, но запись истории не удалась",
			zap.Uint64("equipmentID", draft.EquipmentID), zap.String("action", string(draft.Action)), zap.Error(err))
		auditErr := &AuditError{
			ID:       uuid.NewString(),
			Mutation: m.Name,
			Entry:    *draft,
			FailedAt: time.Now().UTC(),
			Err:      fmt.Errorf("%w: %v", apperrors.ErrStorage, err),
		}
		p.keepPending(auditErr)
		return nil, apperrors.NewHttpError(http.StatusInternalServerError,
			"Изменение сохранено, но не удалось записать историю. Повторите запись журнала.", auditErr,
			map[string]string{"pending_audit_id": auditErr.ID})
	}
	log.Debug("стадия", zap.String("stage", string(StageAudited)), zap.Uint64("historyID", entry.ID))

	p.metrics.ObserveMutation(m.Name, string(StageCompleted))
	log.Info("мутация выполнена", zap.Uint64("equipmentID", entry.EquipmentID), zap.String("action", string(entry.Action)))
	p.publish(ctx, m.Name, actor, entry)
	return entry, nil
}

// RetryAudit повторяет только шаг записи истории для ранее сохранённого изменения.
func (p *MutationPipeline) RetryAudit(ctx context.Context, auditErr *AuditError) (*entities.HistoryEntry, error) {
	entry, err := p.history.AppendHistory(ctx, auditErr.Entry)
	if err != nil {
		p.metrics.ObserveAuditFailure(auditErr.Mutation)
		return nil, apperrors.NewStorageError("Не удалось записать историю", err)
	}
	p.logger.Info("история записана повторно", zap.String("mutation", auditErr.Mutation), zap.Uint64("historyID", entry.ID))
	return entry, nil
}

// PendingAudits - изменения, сохранённые без записи в истории, от старых к новым.
func (p *MutationPipeline) PendingAudits(ctx context.Context) ([]PendingAudit, error) {
	if _, err := p.authorizeRetry(ctx); err != nil {
		return nil, err
	}

	p.pendingMu.Lock()
	res := make([]PendingAudit, 0, len(p.pending))
	for _, a := range p.pending {
		res = append(res, PendingAudit{ID: a.ID, Mutation: a.Mutation, Entry: a.Entry, FailedAt: a.FailedAt, Reason: a.Err.Error()})
	}
	p.pendingMu.Unlock()

	sort.Slice(res, func(i, j int) bool { return res[i].FailedAt.Before(res[j].FailedAt) })
	return res, nil
}

// RetryPendingAudit дописывает в историю сохранённую запись по её ID.
// При повторном сбое запись остаётся в очереди.
func (p *MutationPipeline) RetryPendingAudit(ctx context.Context, id string) (*entities.HistoryEntry, error) {
	actor, err := p.authorizeRetry(ctx)
	if err != nil {
		return nil, err
	}

	// забираем запись, чтобы параллельный повтор не записал её дважды
	p.pendingMu.Lock()
	auditErr, ok := p.pending[id]
	delete(p.pending, id)
	p.pendingMu.Unlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("Незаписанная запись истории не найдена")
	}

	entry, err := p.RetryAudit(ctx, auditErr)
	if err != nil {
		p.keepPending(auditErr)
		return nil, err
	}
	p.metrics.ObserveMutation(auditErr.Mutation, string(StageCompleted))
	p.publish(ctx, auditErr.Mutation, actor, entry)
	return entry, nil
}

func (p *MutationPipeline) authorizeRetry(ctx context.Context) (*authz.Actor, error) {
	actor, err := utils.GetActorFromContext(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if err := p.gatekeeper.Authorize(actor, authz.Write); err != nil {
		return nil, err
	}
	return actor, nil
}

func (p *MutationPipeline) keepPending(auditErr *AuditError) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	p.pending[auditErr.ID] = auditErr
}

func (p *MutationPipeline) reject(log *zap.Logger, name string, stage MutationStage, err error) error {
	p.metrics.ObserveMutation(name, string(StageRejected))
	log.Warn("мутация отклонена", zap.String("stage", string(stage)), zap.Error(err))
	return err
}

// isRejection - ошибки хранилища, которые означают отказ по данным, а не сбой.
func isRejection(err error) bool {
	return errors.Is(err, apperrors.ErrConflict) ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrValidation)
}
