package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/engine"
	"github.com/roach88/rackscore/internal/match"
)

// ErrNoMatch is returned when a journal holds no accepted start of the
// requested match.
var ErrNoMatch = errors.New("match not found in journal")

// RecordAction appends one processed command.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting an entry is a no-op.
func (s *Store) RecordAction(ctx context.Context, e engine.JournalEntry) error {
	var cfgJSON sql.NullString
	if e.Command.Config != nil {
		data, err := marshalJSON(e.Command.Config)
		if err != nil {
			return fmt.Errorf("record action: %w", err)
		}
		cfgJSON = sql.NullString{String: data, Valid: true}
	}

	accepted := 0
	if e.Accepted {
		accepted = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (match_id, seq, action, ball, config, accepted, error_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id, seq) DO NOTHING
	`,
		e.MatchID,
		e.Seq,
		string(e.Command.Action),
		e.Command.Ball,
		cfgJSON,
		accepted,
		string(e.ErrorCode),
	)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// RecordResult stores a decided match. A later result for the same
// match replaces the earlier one.
func (s *Store) RecordResult(ctx context.Context, res match.Result) error {
	data, err := marshalJSON(res)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO matches (match_id, variant, winner_id, loser_id, win_condition, result)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			winner_id = excluded.winner_id,
			loser_id = excluded.loser_id,
			win_condition = excluded.win_condition,
			result = excluded.result
	`,
		res.MatchID,
		string(res.Variant),
		res.Winner.ID,
		res.Loser.ID,
		string(res.WinCondition),
		data,
	)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// ReadActions returns a match's journal in seq order, declined commands
// included.
//
// Returns an empty slice (not nil) if the match has no entries.
func (s *Store) ReadActions(ctx context.Context, matchID string) ([]engine.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, seq, action, ball, config, accepted, error_code
		FROM actions
		WHERE match_id = ?
		ORDER BY seq ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	entries := []engine.JournalEntry{}
	for rows.Next() {
		e, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return entries, nil
}

// MatchCommands returns the configuration a match started with and the
// accepted commands that followed, ready for match.Replay.
func (s *Store) MatchCommands(ctx context.Context, matchID string) (config.Match, []match.Command, error) {
	entries, err := s.ReadActions(ctx, matchID)
	if err != nil {
		return config.Match{}, nil, err
	}

	var cfg *config.Match
	cmds := []match.Command{}
	for _, e := range entries {
		if !e.Accepted {
			continue
		}
		if e.Command.Action == match.ActionStartMatch {
			cfg = e.Command.Config
			cmds = cmds[:0]
			continue
		}
		cmds = append(cmds, e.Command)
	}
	if cfg == nil {
		return config.Match{}, nil, fmt.Errorf("%w: %s", ErrNoMatch, matchID)
	}
	return *cfg, cmds, nil
}

// ReadResult returns the stored result of a decided match.
func (s *Store) ReadResult(ctx context.Context, matchID string) (match.Result, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM matches WHERE match_id = ?`, matchID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Result{}, fmt.Errorf("%w: %s", ErrNoMatch, matchID)
	}
	if err != nil {
		return match.Result{}, fmt.Errorf("read result: %w", err)
	}

	var res match.Result
	if err := unmarshalJSON(data, &res); err != nil {
		return match.Result{}, fmt.Errorf("read result: %w", err)
	}
	return res, nil
}

// MatchIDs lists journaled matches in the order they started.
func (s *Store) MatchIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id FROM actions
		WHERE action = ? AND accepted = 1
		GROUP BY match_id
		ORDER BY MIN(seq) ASC, match_id COLLATE BINARY ASC
	`, string(match.ActionStartMatch))
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return ids, nil
}

// LastSeq returns the highest journaled seq, so a new engine can
// continue numbering after it.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM actions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq.Int64, nil
}

func scanAction(row rowScanner) (engine.JournalEntry, error) {
	var (
		e         engine.JournalEntry
		action    string
		cfgJSON   sql.NullString
		accepted  int
		errorCode string
	)
	if err := row.Scan(&e.MatchID, &e.Seq, &action, &e.Command.Ball, &cfgJSON, &accepted, &errorCode); err != nil {
		return engine.JournalEntry{}, fmt.Errorf("scan action: %w", err)
	}

	e.Command.Action = match.Action(action)
	e.Accepted = accepted != 0
	e.ErrorCode = match.ErrorCode(errorCode)

	if cfgJSON.Valid {
		var cfg config.Match
		if err := unmarshalJSON(cfgJSON.String, &cfg); err != nil {
			return engine.JournalEntry{}, fmt.Errorf("scan action config: %w", err)
		}
		e.Command.Config = &cfg
	}
	return e, nil
}
