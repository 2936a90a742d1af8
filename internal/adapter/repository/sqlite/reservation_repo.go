package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
)

const reservationColumns = `id, account_code, draw_id, status, prizes, amount, remaining, created_at, updated_at`

// ReservationRepository implements usecase.ReservationRepository.
type ReservationRepository struct {
	db *sql.DB
}

// NewReservationRepository creates a new ReservationRepository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts a reservation within tx.
func (r *ReservationRepository) Create(ctx context.Context, tx usecase.Transaction, reservation *domain.FundReservation) error {
	if err := reservation.Validate(); err != nil {
		return err
	}

	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	prizes, err := json.Marshal(reservation.Prizes)
	if err != nil {
		return err
	}

	_, err = sqlTx.ExecContext(ctx, `INSERT INTO fund_reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reservation.ID, reservation.AccountCode, reservation.DrawID, string(reservation.Status), string(prizes),
		reservation.Amount.String(), reservation.Remaining.String(),
		formatTime(reservation.CreatedAt), formatTime(reservation.UpdatedAt))
	return mapError(err)
}

// GetByDrawID retrieves the reservation for a draw.
func (r *ReservationRepository) GetByDrawID(ctx context.Context, drawID string) (*domain.FundReservation, error) {
	return getReservation(ctx, r.db, drawID)
}

// GetByDrawIDForUpdate reads the reservation for a draw inside tx.
func (r *ReservationRepository) GetByDrawIDForUpdate(ctx context.Context, tx usecase.Transaction, drawID string) (*domain.FundReservation, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return getReservation(ctx, sqlTx, drawID)
}

// Update stores the status and remaining amount of a reservation.
func (r *ReservationRepository) Update(ctx context.Context, tx usecase.Transaction, reservation *domain.FundReservation) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	res, err := sqlTx.ExecContext(ctx, `UPDATE fund_reservations SET status = ?, remaining = ?, updated_at = ?
		WHERE draw_id = ?`,
		string(reservation.Status), reservation.Remaining.String(), formatTime(reservation.UpdatedAt), reservation.DrawID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// ListActive lists the active reservations against accountCode, oldest first.
func (r *ReservationRepository) ListActive(ctx context.Context, accountCode string) ([]*domain.FundReservation, error) {
	return queryReservations(ctx, r.db, `SELECT `+reservationColumns+` FROM fund_reservations
		WHERE account_code = ? AND status = 'active' ORDER BY created_at, id`, accountCode)
}

func getReservation(ctx context.Context, q querier, drawID string) (*domain.FundReservation, error) {
	list, err := queryReservations(ctx, q, `SELECT `+reservationColumns+` FROM fund_reservations WHERE draw_id = ?`, drawID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrReservationNotFound
	}
	return list[0], nil
}

func queryReservations(ctx context.Context, q querier, query string, args ...any) ([]*domain.FundReservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*domain.FundReservation, 0)
	for rows.Next() {
		var (
			res               domain.FundReservation
			status, prizes    string
			amount, remaining string
			created, updated  string
		)
		if err := rows.Scan(&res.ID, &res.AccountCode, &res.DrawID, &status, &prizes,
			&amount, &remaining, &created, &updated); err != nil {
			return nil, err
		}

		res.Status = domain.ReservationStatus(status)
		if err := json.Unmarshal([]byte(prizes), &res.Prizes); err != nil {
			return nil, err
		}
		if res.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if res.Remaining, err = parseDecimal(remaining); err != nil {
			return nil, err
		}
		if res.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if res.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		reservations = append(reservations, &res)
	}
	return reservations, rows.Err()
}
