// Package count concilia conteos físicos contra el libro y contabiliza las correcciones.
package count

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/application/ledger"
	"github.com/jhoicas/erp-fulfillment/internal/domain"
	variance "github.com/jhoicas/erp-fulfillment/internal/domain/count"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

// Reconciler sesiones de conteo OPEN -> SUBMITTED -> POSTED.
type Reconciler struct {
	ledger    *ledger.Ledger
	locker    ledger.Locker
	threshold decimal.Decimal
	log       *logger.Logger
}

// NewReconciler construye el conciliador. threshold es el % de variación sobre el cual se exigen notas.
func NewReconciler(l *ledger.Ledger, locker ledger.Locker, threshold decimal.Decimal, log *logger.Logger) *Reconciler {
	if locker == nil {
		locker = ledger.NopLocker{}
	}
	if threshold.IsNegative() {
		threshold = variance.DefaultThreshold
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{ledger: l, locker: locker, threshold: threshold, log: log.Component("count")}
}

// Threshold umbral vigente.
func (r *Reconciler) Threshold() decimal.Decimal { return r.threshold }

// StartCountInput apertura de un conteo.
type StartCountInput struct {
	Location  string
	ItemIDs   []string
	CountDate time.Time // cero = hoy
	Actor     string
}

// StartCount abre un conteo tomando como cantidad de sistema el disponible del libro en la ubicación.
func (r *Reconciler) StartCount(ctx context.Context, in StartCountInput) (*entity.PhysicalCount, error) {
	if in.Actor == "" || len(in.ItemIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}
	now := r.ledger.Now()
	pc := &entity.PhysicalCount{
		ID:        uuid.New().String(),
		Location:  r.ledger.Location(in.Location),
		CountDate: in.CountDate,
		State:     entity.CountStateOpen,
		CreatedBy: in.Actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pc.CountDate.IsZero() {
		pc.CountDate = now
	}

	seen := make(map[string]struct{}, len(in.ItemIDs))
	err := r.ledger.Atomic(ctx, nil, func(repos repository.Repositories, _ *ledger.Batch) error {
		for _, itemID := range in.ItemIDs {
			if _, dup := seen[itemID]; dup {
				return fmt.Errorf("item %s repetido en el conteo: %w", itemID, domain.ErrInvalidInput)
			}
			seen[itemID] = struct{}{}
			item, err := repos.Items.GetByID(ctx, itemID)
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
			}
			if !item.TracksInventory {
				return fmt.Errorf("item %s no lleva inventario: %w", itemID, domain.ErrInvalidInput)
			}
			snap, err := r.ledger.SnapshotInTx(ctx, repos, itemID, pc.Location)
			if err != nil {
				return err
			}
			pc.Lines = append(pc.Lines, &entity.CountLine{
				ID:                 uuid.New().String(),
				CountID:            pc.ID,
				ItemID:             itemID,
				SystemQuantity:     snap.Available,
				CountedQuantity:    decimal.Zero,
				Variance:           decimal.Zero,
				VariancePercentage: decimal.Zero,
			})
		}
		return repos.Counts.Create(ctx, pc)
	})
	if err != nil {
		return nil, err
	}
	r.log.Info().Str("count_id", pc.ID).Str("location", pc.Location).Int("lines", len(pc.Lines)).
		Str("actor", in.Actor).Msg("conteo abierto")
	return pc, nil
}

// RecordCount registra la cantidad contada de una línea y recalcula su variación.
// notes nil conserva las notas anteriores.
func (r *Reconciler) RecordCount(ctx context.Context, lineID string, counted decimal.Decimal, notes *string, actor string) (*entity.PhysicalCount, error) {
	if lineID == "" || actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if counted.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	var countID string
	err := r.ledger.Read(ctx, func(repos repository.Repositories) error {
		pc, err := repos.Counts.GetByLineID(ctx, lineID)
		if err != nil {
			return err
		}
		if pc == nil {
			return fmt.Errorf("línea de conteo %s: %w", lineID, domain.ErrNotFound)
		}
		countID = pc.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.mutate(ctx, countID, nil, func(_ repository.Repositories, _ *ledger.Batch, pc *entity.PhysicalCount) error {
		if pc.State != entity.CountStateOpen {
			return fmt.Errorf("conteo en %s: %w", pc.State, domain.ErrInvalidTransition)
		}
		line := pc.Line(lineID)
		line.CountedQuantity = counted
		line.Variance, line.VariancePercentage = variance.Variance(line.SystemQuantity, counted)
		line.Counted = true
		if notes != nil {
			line.Notes = strings.TrimSpace(*notes)
		}
		return nil
	})
}

// SubmitCount cierra el registro. Falla con NotesRequired si alguna línea supera el umbral sin notas.
func (r *Reconciler) SubmitCount(ctx context.Context, countID, actor string) (*entity.PhysicalCount, error) {
	if countID == "" || actor == "" {
		return nil, domain.ErrInvalidInput
	}
	return r.mutate(ctx, countID, nil, func(_ repository.Repositories, _ *ledger.Batch, pc *entity.PhysicalCount) error {
		if pc.State != entity.CountStateOpen {
			return fmt.Errorf("conteo en %s: %w", pc.State, domain.ErrInvalidTransition)
		}
		if err := r.checkNotes(pc); err != nil {
			return err
		}
		pc.State = entity.CountStateSubmitted
		return nil
	})
}

// PostCount contabiliza una COUNT_CORRECTION por cada línea contada con variación. Todo o nada;
// un conteo contabilizado ya no se modifica.
func (r *Reconciler) PostCount(ctx context.Context, countID, actor string) (*entity.PhysicalCount, error) {
	if countID == "" || actor == "" {
		return nil, domain.ErrInvalidInput
	}
	current, err := r.Get(ctx, countID)
	if err != nil {
		return nil, err
	}
	itemIDs := make([]string, 0, len(current.Lines))
	for _, l := range current.Lines {
		itemIDs = append(itemIDs, l.ItemID)
	}

	corrections := 0
	pc, err := r.mutate(ctx, countID, itemIDs, func(repos repository.Repositories, b *ledger.Batch, pc *entity.PhysicalCount) error {
		if pc.State != entity.CountStateSubmitted {
			return fmt.Errorf("conteo en %s: %w", pc.State, domain.ErrInvalidTransition)
		}
		if err := r.checkNotes(pc); err != nil {
			return err
		}
		corrections = 0
		for _, l := range pc.Lines {
			if !l.Counted || l.Variance.IsZero() {
				continue
			}
			if _, err := r.ledger.CorrectInTx(ctx, repos, b, ledger.CorrectionInput{
				ItemID:    l.ItemID,
				Location:  pc.Location,
				Type:      entity.MovementCountCorrection,
				Quantity:  l.Variance,
				Reference: entity.Reference{Type: entity.RefPhysicalCount, ID: pc.ID},
				Actor:     actor,
				Notes:     l.Notes,
			}); err != nil {
				return err
			}
			corrections++
		}
		now := r.ledger.Now()
		pc.State = entity.CountStatePosted
		pc.PostedBy = actor
		pc.PostedAt = &now
		b.Add(entity.CountPosted{CountID: pc.ID, Location: pc.Location, Corrections: corrections, Actor: actor, OccurredAt: now})
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info().Str("count_id", countID).Int("corrections", corrections).Str("actor", actor).Msg("conteo contabilizado")
	return pc, nil
}

// Get devuelve el conteo con sus líneas.
func (r *Reconciler) Get(ctx context.Context, countID string) (*entity.PhysicalCount, error) {
	var pc *entity.PhysicalCount
	err := r.ledger.Read(ctx, func(repos repository.Repositories) error {
		var err error
		pc, err = repos.Counts.GetByID(ctx, countID)
		if err != nil {
			return err
		}
		if pc == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	return pc, err
}

func (r *Reconciler) checkNotes(pc *entity.PhysicalCount) error {
	for _, l := range pc.Lines {
		if !l.Counted {
			continue
		}
		if variance.RequiresNotes(l.SystemQuantity, l.CountedQuantity, r.threshold) && l.Notes == "" {
			return fmt.Errorf("item %s con variación %s%% (umbral %s%%): %w",
				l.ItemID, l.VariancePercentage.String(), r.threshold.String(), domain.ErrNotesRequired)
		}
	}
	return nil
}

func (r *Reconciler) mutate(
	ctx context.Context, countID string, itemIDs []string,
	fn func(repos repository.Repositories, b *ledger.Batch, pc *entity.PhysicalCount) error,
) (*entity.PhysicalCount, error) {
	unlock, err := r.locker.Lock(ctx, "count:"+countID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *entity.PhysicalCount
	err = r.ledger.Atomic(ctx, itemIDs, func(repos repository.Repositories, b *ledger.Batch) error {
		pc, err := repos.Counts.GetByID(ctx, countID)
		if err != nil {
			return err
		}
		if pc == nil {
			return domain.ErrNotFound
		}
		if err := fn(repos, b, pc); err != nil {
			return err
		}
		pc.UpdatedAt = r.ledger.Now()
		if err := repos.Counts.Update(ctx, pc); err != nil {
			return err
		}
		result = pc
		return nil
	})
	return result, err
}
