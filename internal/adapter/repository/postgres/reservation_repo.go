package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/postgres/generated"
	"github.com/iho/fundledger/internal/usecase"
)

// ReservationRepository implements usecase.ReservationRepository.
type ReservationRepository struct {
	queries *generated.Queries
}

// NewReservationRepository creates a new ReservationRepository.
func NewReservationRepository(db generated.DBTX) *ReservationRepository {
	return &ReservationRepository{queries: generated.New(db)}
}

// Create inserts a reservation within tx. A second reservation for the same
// draw violates the draw_id unique constraint.
func (r *ReservationRepository) Create(ctx context.Context, tx usecase.Transaction, reservation *domain.FundReservation) error {
	if err := reservation.Validate(); err != nil {
		return err
	}

	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	prizes, err := json.Marshal(reservation.Prizes)
	if err != nil {
		return err
	}

	err = r.queries.WithTx(pgxTx).CreateReservation(ctx, generated.CreateReservationParams{
		ID:          reservation.ID,
		AccountCode: reservation.AccountCode,
		DrawID:      reservation.DrawID,
		Status:      string(reservation.Status),
		Prizes:      prizes,
		Amount:      decimalToNumeric(reservation.Amount),
		Remaining:   decimalToNumeric(reservation.Remaining),
		CreatedAt:   timeToPgTimestamptz(reservation.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(reservation.UpdatedAt),
	})
	return mapError(err)
}

// GetByDrawID retrieves the reservation for a draw.
func (r *ReservationRepository) GetByDrawID(ctx context.Context, drawID string) (*domain.FundReservation, error) {
	row, err := r.queries.GetReservationByDrawID(ctx, drawID)
	if err != nil {
		return nil, reservationError(err)
	}
	return rowToReservation(row)
}

// GetByDrawIDForUpdate retrieves and locks the reservation for a draw.
func (r *ReservationRepository) GetByDrawIDForUpdate(ctx context.Context, tx usecase.Transaction, drawID string) (*domain.FundReservation, error) {
	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	row, err := r.queries.WithTx(pgxTx).GetReservationByDrawIDForUpdate(ctx, drawID)
	if err != nil {
		return nil, reservationError(err)
	}
	return rowToReservation(row)
}

// Update stores the status and remaining amount of a reservation.
func (r *ReservationRepository) Update(ctx context.Context, tx usecase.Transaction, reservation *domain.FundReservation) error {
	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	return r.queries.WithTx(pgxTx).UpdateReservation(ctx, generated.UpdateReservationParams{
		DrawID:    reservation.DrawID,
		Status:    string(reservation.Status),
		Remaining: decimalToNumeric(reservation.Remaining),
		UpdatedAt: timeToPgTimestamptz(reservation.UpdatedAt),
	})
}

// ListActive lists the active reservations against accountCode, oldest first.
func (r *ReservationRepository) ListActive(ctx context.Context, accountCode string) ([]*domain.FundReservation, error) {
	rows, err := r.queries.ListActiveReservations(ctx, accountCode)
	if err != nil {
		return nil, err
	}

	reservations := make([]*domain.FundReservation, 0, len(rows))
	for _, row := range rows {
		res, err := rowToReservation(row)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, nil
}

func reservationError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrReservationNotFound
	}
	return err
}

func rowToReservation(row generated.FundReservation) (*domain.FundReservation, error) {
	var prizes []domain.Prize
	if len(row.Prizes) > 0 {
		if err := json.Unmarshal(row.Prizes, &prizes); err != nil {
			return nil, err
		}
	}

	return &domain.FundReservation{
		ID:          row.ID,
		AccountCode: row.AccountCode,
		DrawID:      row.DrawID,
		Status:      domain.ReservationStatus(row.Status),
		Prizes:      prizes,
		Amount:      numericToDecimal(row.Amount),
		Remaining:   numericToDecimal(row.Remaining),
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}, nil
}
