package rounds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/fastprodman/crashgame/internal/infra/pgutils"
	"github.com/fastprodman/crashgame/internal/repos/rounds"
	"github.com/google/uuid"
)

var _ rounds.Rounds = (*roundsRepo)(nil)

const (
	table         = "active_rounds"
	colUserID     = "user_id"
	colRoundID    = "round_id"
	colBet        = "bet"
	colCrashPoint = "crash_point"
	colFreeRound  = "free_round"
	colStartedAt  = "started_at"
	colCrashAt    = "crash_at"

	pkeyConstraint = "active_rounds_pkey"
)

// UUIDs are bound as strings: squirrel would expand a [16]byte into an IN list.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type roundsRepo struct{ db *sql.DB }

func New(db *sql.DB) *roundsRepo {
	return &roundsRepo{db: db}
}

// Insert stores a new active round. The primary key on user_id turns a
// second concurrent round for the same user into ErrActiveRoundExists.
func (r *roundsRepo) Insert(tx *sql.Tx, round rounds.ActiveRound) error {
	query, args, err := psql.Insert(table).
		Columns(colUserID, colRoundID, colBet, colCrashPoint, colFreeRound, colStartedAt, colCrashAt).
		Values(round.UserID.String(), round.ID.String(), round.BetMinor, round.CrashPoint, round.FreeRound, round.StartedAt, round.CrashAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = tx.Exec(query, args...)
	if err != nil {
		if pgutils.IsUniqueViolation(err, pkeyConstraint) {
			return rounds.ErrActiveRoundExists
		}

		return fmt.Errorf("insert round: %w", err)
	}

	return nil
}

func (r *roundsRepo) Get(tx *sql.Tx, userID uuid.UUID) (rounds.ActiveRound, error) {
	query, args, err := psql.Select(colRoundID, colUserID, colBet, colCrashPoint, colFreeRound, colStartedAt, colCrashAt).
		From(table).
		Where(sq.Eq{colUserID: userID.String()}).
		ToSql()
	if err != nil {
		return rounds.ActiveRound{}, fmt.Errorf("build select: %w", err)
	}

	var round rounds.ActiveRound

	err = tx.QueryRow(query, args...).Scan(
		&round.ID, &round.UserID, &round.BetMinor, &round.CrashPoint,
		&round.FreeRound, &round.StartedAt, &round.CrashAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rounds.ActiveRound{}, rounds.ErrNoActiveRound
		}

		return rounds.ActiveRound{}, fmt.Errorf("get round: %w", err)
	}

	return round, nil
}

// Delete removes the round only if it is still the user's active one.
func (r *roundsRepo) Delete(tx *sql.Tx, userID, roundID uuid.UUID) error {
	query, args, err := psql.Delete(table).
		Where(sq.Eq{colUserID: userID.String(), colRoundID: roundID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("delete round: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return rounds.ErrNoActiveRound
	}

	return nil
}

// ListExpired returns rounds that crashed before the given time, oldest
// first.
func (r *roundsRepo) ListExpired(ctx context.Context, before time.Time, limit uint64) ([]rounds.ExpiredRound, error) {
	query, args, err := psql.Select(colUserID, colRoundID).
		From(table).
		Where(sq.Lt{colCrashAt: before}).
		OrderBy(colCrashAt).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select expired: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expired: %w", pgutils.Classify(err))
	}
	defer rows.Close()

	var expired []rounds.ExpiredRound

	for rows.Next() {
		var e rounds.ExpiredRound

		err = rows.Scan(&e.UserID, &e.RoundID)
		if err != nil {
			return nil, fmt.Errorf("scan expired: %w", err)
		}

		expired = append(expired, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate expired: %w", err)
	}

	return expired, nil
}
