package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const dateLayout = "2006-01-02"

// storeErr classifies a database failure as both its query/update kind and a
// store outage. ErrUpstreamUnavailable is what aborts a whole simulation pass.
func storeErr(kind, err error) error {
	return errors.Join(kind, ports.ErrUpstreamUnavailable, err)
}

// Repository implements ports.PositionRepository, ports.FundRepository and
// ports.CheckpointRepository on a single SQLite database.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/simulator.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally, but the Go driver benefits from
	// limiting connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		simulation_name TEXT NOT NULL,
		pair TEXT NOT NULL,
		buy_date TEXT NOT NULL,
		buy_price REAL NOT NULL,
		buy_index INTEGER NOT NULL,
		buy_signal TEXT NOT NULL DEFAULT '',
		fund_slot INTEGER NOT NULL DEFAULT 0,
		sell_date TEXT DEFAULT NULL,
		sell_price REAL DEFAULT NULL,
		sell_index INTEGER DEFAULT NULL,
		sell_signal TEXT DEFAULT NULL,
		position_duration INTEGER DEFAULT NULL,
		ratio REAL DEFAULT NULL
	);

	CREATE TABLE IF NOT EXISTS funds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		simulation_name TEXT NOT NULL,
		fund_slot INTEGER NOT NULL,
		last_position_id INTEGER NOT NULL DEFAULT 0,
		capital REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fund_benefits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		simulation_name TEXT NOT NULL,
		fund_slot INTEGER NOT NULL,
		position_id INTEGER NOT NULL,
		amount REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS simulations (
		simulation_name TEXT PRIMARY KEY,
		last_processed TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_positions_sim_pair_sell ON positions (simulation_name, pair, sell_index);
	CREATE INDEX IF NOT EXISTS idx_funds_sim_slot ON funds (simulation_name, fund_slot, id);
	CREATE INDEX IF NOT EXISTS idx_benefits_sim ON fund_benefits (simulation_name);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- PositionRepository Implementation ---

// Create saves a new open position and returns its assigned ID.
func (r *Repository) Create(ctx context.Context, pos *domain.Position) (int64, error) {
	const query = `
	INSERT INTO positions (simulation_name, pair, buy_date, buy_price, buy_index, buy_signal, fund_slot)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		pos.SimulationName, pos.Pair, pos.BuyDate.Format(dateLayout), pos.BuyPrice,
		pos.BuyIndex, pos.BuySignal, pos.FundSlot)
	if err != nil {
		return 0, fmt.Errorf("failed to insert position for pair %s: %w", pos.Pair, storeErr(ports.ErrQueryFailed, err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for position %s: %w", pos.Pair, err)
	}
	pos.ID = id
	r.logger.Debug(ctx, "Position created", map[string]interface{}{"positionID": id, "pair": pos.Pair, "slot": pos.FundSlot})
	return id, nil
}

// ClosePosition writes the sell-side fields of a position in a single update.
// The WHERE clause restricts the update to a still-open row so a concurrent
// double close surfaces as zero rows affected.
func (r *Repository) ClosePosition(ctx context.Context, pos *domain.Position) error {
	const query = `
	UPDATE positions
	SET sell_date = ?, sell_price = ?, sell_index = ?, sell_signal = ?, position_duration = ?, ratio = ?
	WHERE id = ? AND sell_index IS NULL`

	if pos.SellDate == nil || pos.SellPrice == nil || pos.SellIndex == nil {
		return fmt.Errorf("position %d close is missing sell fields: %w", pos.ID, ports.ErrUpdateFailed)
	}

	var sellSignal sql.NullString
	if pos.SellSignal != nil {
		sellSignal = sql.NullString{String: *pos.SellSignal, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		pos.SellDate.Format(dateLayout), *pos.SellPrice, *pos.SellIndex, sellSignal,
		pos.Duration, pos.Ratio, pos.ID)
	if err != nil {
		return fmt.Errorf("failed to close position ID %d: %w", pos.ID, storeErr(ports.ErrUpdateFailed, err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for close of position ID %d: %w", pos.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("position ID %d is not open: %w", pos.ID, ports.ErrAlreadyClosed)
	}
	r.logger.Debug(ctx, "Position closed", map[string]interface{}{"positionID": pos.ID, "ratio": pos.Ratio})
	return nil
}

// FindByID retrieves a position by its unique ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Position, error) {
	const query = selectPositionColumns + ` WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	pos, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query position by ID %d: %w", id, storeErr(ports.ErrQueryFailed, err))
	}
	return pos, nil
}

// FindOpenByPair retrieves open positions for a pair, oldest buy first.
// The ascending order matters: strategies may assume the oldest open
// position is closed first.
func (r *Repository) FindOpenByPair(ctx context.Context, simulation, pair string) ([]*domain.Position, error) {
	const query = selectPositionColumns + `
	WHERE simulation_name = ? AND pair = ? AND sell_index IS NULL
	ORDER BY buy_date ASC, id ASC`

	return r.queryPositions(ctx, query, simulation, pair)
}

// FindBySimulation retrieves every position of a simulation, oldest buy first.
func (r *Repository) FindBySimulation(ctx context.Context, simulation string) ([]*domain.Position, error) {
	const query = selectPositionColumns + `
	WHERE simulation_name = ?
	ORDER BY buy_date ASC, id ASC`

	return r.queryPositions(ctx, query, simulation)
}

// OccupiedSlots returns the distinct fund slots referenced by open positions.
func (r *Repository) OccupiedSlots(ctx context.Context, simulation, pair string, scope ports.SlotScope) ([]int, error) {
	query := `
	SELECT DISTINCT fund_slot FROM positions
	WHERE simulation_name = ? AND sell_index IS NULL AND fund_slot > 0`
	args := []interface{}{simulation}
	if scope == ports.SlotScopePair {
		query += ` AND pair = ?`
		args = append(args, pair)
	}
	query += ` ORDER BY fund_slot ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupied slots for %s: %w", simulation, storeErr(ports.ErrQueryFailed, err))
	}
	defer rows.Close()

	slots := make([]int, 0)
	for rows.Next() {
		var slot int
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("failed to scan occupied slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating occupied slot rows: %w", err)
	}
	return slots, nil
}

// MostRecentDate returns the max of buy and sell dates across the simulation's positions.
func (r *Repository) MostRecentDate(ctx context.Context, simulation string) (*time.Time, error) {
	const query = `
	SELECT MAX(MAX(buy_date, COALESCE(sell_date, buy_date))) FROM positions
	WHERE simulation_name = ?`

	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, query, simulation).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to query most recent date for %s: %w", simulation, storeErr(ports.ErrQueryFailed, err))
	}
	if !raw.Valid {
		return nil, nil
	}
	date, err := time.Parse(dateLayout, raw.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse most recent date '%s': %w", raw.String, err)
	}
	return &date, nil
}

// MaxIndexForPair returns the highest buy or sell index recorded for a pair,
// or -1 when no positions exist for it.
func (r *Repository) MaxIndexForPair(ctx context.Context, simulation, pair string) (int, error) {
	const query = `
	SELECT MAX(MAX(buy_index, COALESCE(sell_index, buy_index))) FROM positions
	WHERE simulation_name = ? AND pair = ?`

	var raw sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, simulation, pair).Scan(&raw)
	if err != nil {
		return 0, fmt.Errorf("failed to query max index for %s/%s: %w", simulation, pair, storeErr(ports.ErrQueryFailed, err))
	}
	if !raw.Valid {
		return -1, nil
	}
	return int(raw.Int64), nil
}

// DeleteSimulation removes all positions, fund history and the checkpoint of a simulation.
func (r *Repository) DeleteSimulation(ctx context.Context, simulation string) error {
	stmts := []string{
		`DELETE FROM positions WHERE simulation_name = ?`,
		`DELETE FROM funds WHERE simulation_name = ?`,
		`DELETE FROM fund_benefits WHERE simulation_name = ?`,
		`DELETE FROM simulations WHERE simulation_name = ?`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt, simulation); err != nil {
			return fmt.Errorf("failed to delete simulation %s: %w", simulation, storeErr(ports.ErrUpdateFailed, err))
		}
	}
	r.logger.Info(ctx, "Simulation deleted", map[string]interface{}{"simulation": simulation})
	return nil
}

// --- FundRepository Implementation ---

// AppendCapital adds a capital record to a slot's history and returns its ID.
func (r *Repository) AppendCapital(ctx context.Context, rec *domain.FundRecord) (int64, error) {
	const query = `
	INSERT INTO funds (simulation_name, fund_slot, last_position_id, capital)
	VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, rec.SimulationName, rec.Slot, rec.LastPositionID, rec.Capital)
	if err != nil {
		return 0, fmt.Errorf("failed to insert fund record for slot %d: %w", rec.Slot, storeErr(ports.ErrQueryFailed, err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for fund record slot %d: %w", rec.Slot, err)
	}
	rec.ID = id
	r.logger.Debug(ctx, "Fund capital recorded", map[string]interface{}{"slot": rec.Slot, "capital": rec.Capital})
	return id, nil
}

// LatestCapital returns the most recent capital record for a slot.
func (r *Repository) LatestCapital(ctx context.Context, simulation string, slot int) (*domain.FundRecord, error) {
	const query = `
	SELECT id, simulation_name, fund_slot, last_position_id, capital FROM funds
	WHERE simulation_name = ? AND fund_slot = ?
	ORDER BY id DESC LIMIT 1`

	rec := &domain.FundRecord{}
	err := r.db.QueryRowContext(ctx, query, simulation, slot).Scan(
		&rec.ID, &rec.SimulationName, &rec.Slot, &rec.LastPositionID, &rec.Capital)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest capital for slot %d: %w", slot, storeErr(ports.ErrQueryFailed, err))
	}
	return rec, nil
}

// LatestCapitals returns the current capital of every slot of a simulation.
func (r *Repository) LatestCapitals(ctx context.Context, simulation string) (map[int]float64, error) {
	const query = `
	SELECT f.fund_slot, f.capital FROM funds f
	WHERE f.simulation_name = ?
	  AND f.id = (SELECT MAX(id) FROM funds WHERE simulation_name = f.simulation_name AND fund_slot = f.fund_slot)`

	rows, err := r.db.QueryContext(ctx, query, simulation)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest capitals for %s: %w", simulation, storeErr(ports.ErrQueryFailed, err))
	}
	defer rows.Close()

	capitals := make(map[int]float64)
	for rows.Next() {
		var slot int
		var capital float64
		if err := rows.Scan(&slot, &capital); err != nil {
			return nil, fmt.Errorf("failed to scan latest capital row: %w", err)
		}
		capitals[slot] = capital
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating latest capital rows: %w", err)
	}
	return capitals, nil
}

// SlotHistory returns a slot's full capital trajectory, oldest first.
func (r *Repository) SlotHistory(ctx context.Context, simulation string, slot int) ([]*domain.FundRecord, error) {
	const query = `
	SELECT id, simulation_name, fund_slot, last_position_id, capital FROM funds
	WHERE simulation_name = ? AND fund_slot = ?
	ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, simulation, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to query slot history for slot %d: %w", slot, storeErr(ports.ErrQueryFailed, err))
	}
	defer rows.Close()

	records := make([]*domain.FundRecord, 0)
	for rows.Next() {
		rec := &domain.FundRecord{}
		if err := rows.Scan(&rec.ID, &rec.SimulationName, &rec.Slot, &rec.LastPositionID, &rec.Capital); err != nil {
			return nil, fmt.Errorf("failed to scan fund record: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund record rows: %w", err)
	}
	return records, nil
}

// AppendBenefit adds a benefit record and returns its ID.
func (r *Repository) AppendBenefit(ctx context.Context, rec *domain.BenefitRecord) (int64, error) {
	const query = `
	INSERT INTO fund_benefits (simulation_name, fund_slot, position_id, amount)
	VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, rec.SimulationName, rec.Slot, rec.PositionID, rec.Amount)
	if err != nil {
		return 0, fmt.Errorf("failed to insert benefit record for slot %d: %w", rec.Slot, storeErr(ports.ErrQueryFailed, err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for benefit record slot %d: %w", rec.Slot, err)
	}
	rec.ID = id
	return id, nil
}

// TotalBenefits sums all benefit records of a simulation.
func (r *Repository) TotalBenefits(ctx context.Context, simulation string) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM fund_benefits WHERE simulation_name = ?`
	var total float64
	err := r.db.QueryRowContext(ctx, query, simulation).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum benefits for %s: %w", simulation, storeErr(ports.ErrQueryFailed, err))
	}
	return total, nil
}

// --- CheckpointRepository Implementation ---

// GetCheckpoint returns the last fully processed date for a simulation.
func (r *Repository) GetCheckpoint(ctx context.Context, simulation string) (*time.Time, error) {
	const query = `SELECT last_processed FROM simulations WHERE simulation_name = ?`

	var raw string
	err := r.db.QueryRowContext(ctx, query, simulation).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query checkpoint for %s: %w", simulation, storeErr(ports.ErrQueryFailed, err))
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint '%s': %w", raw, err)
	}
	return &date, nil
}

// SaveCheckpoint advances the checkpoint to the given date.
// The conflict clause guards monotonicity: a stale writer cannot move the
// checkpoint backwards.
func (r *Repository) SaveCheckpoint(ctx context.Context, simulation string, date time.Time) error {
	const query = `
	INSERT INTO simulations (simulation_name, last_processed) VALUES (?, ?)
	ON CONFLICT(simulation_name) DO UPDATE SET last_processed = excluded.last_processed
	WHERE excluded.last_processed > simulations.last_processed`

	_, err := r.db.ExecContext(ctx, query, simulation, domain.Day(date).Format(dateLayout))
	if err != nil {
		return fmt.Errorf("failed to save checkpoint for %s: %w", simulation, storeErr(ports.ErrUpdateFailed, err))
	}
	return nil
}

// --- Helper Scan Functions ---

const selectPositionColumns = `
	SELECT id, simulation_name, pair, buy_date, buy_price, buy_index, buy_signal, fund_slot,
	       sell_date, sell_price, sell_index, sell_signal,
	       COALESCE(position_duration, 0), COALESCE(ratio, 0)
	FROM positions`

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) queryPositions(ctx context.Context, query string, args ...interface{}) ([]*domain.Position, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", storeErr(ports.ErrQueryFailed, err))
	}
	defer rows.Close()

	positions := make([]*domain.Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w", err)
	}
	return positions, nil
}

// scanPosition scans a row into a domain.Position struct.
func scanPosition(s scanner) (*domain.Position, error) {
	p := &domain.Position{}
	var buyDate string
	var sellDate, sellSignal sql.NullString
	var sellPrice sql.NullFloat64
	var sellIndex sql.NullInt64
	err := s.Scan(
		&p.ID, &p.SimulationName, &p.Pair, &buyDate, &p.BuyPrice, &p.BuyIndex, &p.BuySignal, &p.FundSlot,
		&sellDate, &sellPrice, &sellIndex, &sellSignal, &p.Duration, &p.Ratio)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}

	p.BuyDate, err = time.Parse(dateLayout, buyDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse buy date '%s': %w", buyDate, err)
	}
	if sellDate.Valid {
		d, err := time.Parse(dateLayout, sellDate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sell date '%s': %w", sellDate.String, err)
		}
		p.SellDate = &d
	}
	if sellPrice.Valid {
		v := sellPrice.Float64
		p.SellPrice = &v
	}
	if sellIndex.Valid {
		v := int(sellIndex.Int64)
		p.SellIndex = &v
	}
	if sellSignal.Valid {
		v := sellSignal.String
		p.SellSignal = &v
	}
	return p, nil
}
