package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/match"
	"github.com/roach88/rackscore/internal/roster"
)

const playerColumns = `id, name, builtin, games_played, games_won, total_shots, successful_shots,
	perfect_clears, total_balls_pocketed, total_innings, total_safeties, total_fouls`

// SeedBuiltin registers the default players and marks them undeletable.
// Existing statistics are kept.
func (s *Store) SeedBuiltin(ctx context.Context, refs ...config.PlayerRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed players: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, ref := range refs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO players (id, name, builtin) VALUES (?, ?, 1)
			ON CONFLICT(id) DO UPDATE SET builtin = 1
		`, ref.ID, roster.NormalizeName(ref.Label()))
		if err != nil {
			return fmt.Errorf("seed player %s: %w", ref.ID, err)
		}
	}
	return tx.Commit()
}

// Register adds a player, or renames an existing one.
func (s *Store) Register(ctx context.Context, ref config.PlayerRef) (roster.Player, error) {
	if ref.ID == "" {
		return roster.Player{}, fmt.Errorf("register player: empty id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, ref.ID, roster.NormalizeName(ref.Label()))
	if err != nil {
		return roster.Player{}, fmt.Errorf("register player: %w", err)
	}
	return s.Player(ctx, ref.ID)
}

// Player returns one player.
func (s *Store) Player(ctx context.Context, id string) (roster.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Player{}, fmt.Errorf("%w: %s", roster.ErrNotFound, id)
	}
	return p, err
}

// Players returns every player ordered by ID.
//
// Returns an empty slice (not nil) if there are no players.
func (s *Store) Players(ctx context.Context) ([]roster.Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	players := []roster.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// Delete removes a non-builtin player.
func (s *Store) Delete(ctx context.Context, id string) error {
	p, err := s.Player(ctx, id)
	if err != nil {
		return err
	}
	if p.Builtin {
		return fmt.Errorf("%w: %s", roster.ErrBuiltin, id)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return nil
}

// ApplyMatchResult merges res into both players' records in one
// transaction, registering players the store has not seen.
func (s *Store) ApplyMatchResult(ctx context.Context, res match.Result) error {
	return s.adjustRecords(ctx, res, 1)
}

// RevertMatchResult takes res back out of both players' records in one
// transaction. Players deleted since the merge are skipped.
func (s *Store) RevertMatchResult(ctx context.Context, res match.Result) error {
	return s.adjustRecords(ctx, res, -1)
}

// adjustRecords adds (sign 1) or subtracts (sign -1) one match per seat.
func (s *Store) adjustRecords(ctx context.Context, res match.Result, sign int) error {
	updates := roster.Seats(res)
	if len(updates) == 0 {
		return nil
	}

	op := "apply result"
	if sign < 0 {
		op = "revert result"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback() // No-op if committed

	for _, u := range updates {
		won := 0
		if u.Won {
			won = 1
		}
		if sign > 0 {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO players (id, name) VALUES (?, ?)
				ON CONFLICT(id) DO NOTHING
			`, u.Ref.ID, roster.NormalizeName(u.Ref.Label()))
			if err != nil {
				return fmt.Errorf("%s: register %s: %w", op, u.Ref.ID, err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE players SET
				games_played = games_played + ?,
				games_won = games_won + ?,
				total_shots = total_shots + ?,
				successful_shots = successful_shots + ?,
				perfect_clears = perfect_clears + ?,
				total_balls_pocketed = total_balls_pocketed + ?,
				total_innings = total_innings + ?,
				total_safeties = total_safeties + ?,
				total_fouls = total_fouls + ?
			WHERE id = ?
		`,
			sign,
			sign*won,
			sign*u.Stats.Shots,
			sign*u.Stats.BallsPocketed,
			sign*u.Stats.PerfectClears,
			sign*u.Stats.BallsPocketed,
			sign*u.Stats.Innings,
			sign*u.Stats.Safeties,
			sign*u.Stats.Fouls,
			u.Ref.ID,
		)
		if err != nil {
			return fmt.Errorf("%s: update %s: %w", op, u.Ref.ID, err)
		}
	}

	return tx.Commit()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (roster.Player, error) {
	var p roster.Player
	var builtin int
	l := &p.Stats
	err := row.Scan(
		&p.ID,
		&p.Name,
		&builtin,
		&l.GamesPlayed,
		&l.GamesWon,
		&l.TotalShots,
		&l.SuccessfulShots,
		&l.PerfectClears,
		&l.TotalBallsPocketed,
		&l.TotalInnings,
		&l.TotalSafeties,
		&l.TotalFouls,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return roster.Player{}, err
		}
		return roster.Player{}, fmt.Errorf("scan player: %w", err)
	}
	p.Builtin = builtin != 0
	return p, nil
}
