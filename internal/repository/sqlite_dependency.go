package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/planloom/planloom/internal/db"
	"github.com/planloom/planloom/internal/domain"
)

// SQLiteDependencyRepo implements DependencyRepo using a SQLite database.
type SQLiteDependencyRepo struct {
	db db.DBTX
}

// NewSQLiteDependencyRepo creates a new SQLiteDependencyRepo.
func NewSQLiteDependencyRepo(conn db.DBTX) *SQLiteDependencyRepo {
	return &SQLiteDependencyRepo{db: conn}
}

// Create inserts a new dependency, rejecting it outright (§8 scenario 5)
// if the predecessor is already reachable from the successor through the
// existing graph — adding it would close a cycle. The repository is left
// unchanged when this happens.
func (r *SQLiteDependencyRepo) Create(ctx context.Context, d *domain.Dependency) error {
	existing, err := r.ListAll(ctx)
	if err != nil {
		return err
	}
	if wouldCycle(existing, d.PredecessorID, d.SuccessorID) {
		return fmt.Errorf("%w: dependency %s -> %s would introduce a cycle", ErrValidation, d.PredecessorID, d.SuccessorID)
	}

	query := `INSERT INTO dependency (id, predecessor_id, successor_id) VALUES (?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, d.ID, d.PredecessorID, d.SuccessorID)
	if err != nil {
		return fmt.Errorf("inserting dependency: %w", err)
	}
	return nil
}

// wouldCycle reports whether adding predecessorID -> successorID to deps
// would create a cycle, i.e. whether predecessorID is already reachable
// from successorID.
func wouldCycle(deps []domain.Dependency, predecessorID, successorID string) bool {
	if predecessorID == successorID {
		return true
	}
	adj := make(map[string][]string, len(deps))
	for _, d := range deps {
		adj[d.PredecessorID] = append(adj[d.PredecessorID], d.SuccessorID)
	}
	visited := make(map[string]bool)
	stack := []string{successorID}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == predecessorID {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, adj[n]...)
	}
	return false
}

func (r *SQLiteDependencyRepo) Delete(ctx context.Context, predecessorID, successorID string) error {
	query := `DELETE FROM dependency WHERE predecessor_id = ? AND successor_id = ?`
	_, err := r.db.ExecContext(ctx, query, predecessorID, successorID)
	if err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}
	return nil
}

func (r *SQLiteDependencyRepo) ListAll(ctx context.Context) ([]domain.Dependency, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, predecessor_id, successor_id FROM dependency`)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies: %w", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func (r *SQLiteDependencyRepo) ListByTask(ctx context.Context, taskID string) (predecessors, successors []domain.Dependency, err error) {
	predRows, err := r.db.QueryContext(ctx, `SELECT id, predecessor_id, successor_id FROM dependency WHERE successor_id = ?`, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing predecessors: %w", err)
	}
	predecessors, err = scanDependencies(predRows)
	predRows.Close()
	if err != nil {
		return nil, nil, err
	}

	succRows, err := r.db.QueryContext(ctx, `SELECT id, predecessor_id, successor_id FROM dependency WHERE predecessor_id = ?`, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing successors: %w", err)
	}
	successors, err = scanDependencies(succRows)
	succRows.Close()
	if err != nil {
		return nil, nil, err
	}
	return predecessors, successors, nil
}

func scanDependencies(rows *sql.Rows) ([]domain.Dependency, error) {
	var deps []domain.Dependency
	for rows.Next() {
		var d domain.Dependency
		if err := rows.Scan(&d.ID, &d.PredecessorID, &d.SuccessorID); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return deps, nil
}
