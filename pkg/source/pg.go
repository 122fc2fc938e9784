package source

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PGConfig names the tables holding agents and links
type PGConfig struct {
	DSN        string `yaml:"dsn"`
	AgentTable string `yaml:"agentTable"`
	LinkTable  string `yaml:"linkTable"`
}

// PGSource reads snapshots from PostgreSQL. Agents are read from
// (id, name, risk, activity_count) and links from (source_id, target_id, weight).
type PGSource struct {
	pool       *pgxpool.Pool
	agentQuery string
	linkQuery  string
}

// NewPGSource connects a small pool and verifies it
func NewPGSource(ctx context.Context, cfg PGConfig) (*PGSource, error) {
	agents, links, err := queries(cfg)
	if err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &PGSource{pool: pool, agentQuery: agents, linkQuery: links}, nil
}

func queries(cfg PGConfig) (agents, links string, err error) {
	agentTable, linkTable := cfg.AgentTable, cfg.LinkTable
	if agentTable == "" {
		agentTable = "agents"
	}
	if linkTable == "" {
		linkTable = "agent_links"
	}
	for _, t := range []string{agentTable, linkTable} {
		if !identPattern.MatchString(t) {
			return "", "", fmt.Errorf("invalid table name %q", t)
		}
	}
	agents = fmt.Sprintf(`SELECT id, name, risk, activity_count FROM %s ORDER BY id`, agentTable)
	links = fmt.Sprintf(`SELECT source_id, target_id, weight FROM %s`, linkTable)
	return agents, links, nil
}

// Fetch reads all agents and links
func (s *PGSource) Fetch(ctx context.Context) (visualization.Snapshot, error) {
	var snap visualization.Snapshot

	rows, err := s.pool.Query(ctx, s.agentQuery)
	if err != nil {
		return snap, fmt.Errorf("failed to query agents: %w", err)
	}
	for rows.Next() {
		var n visualization.SnapshotNode
		if err := rows.Scan(&n.ID, &n.Name, &n.Risk, &n.ActivityCount); err != nil {
			rows.Close()
			return visualization.Snapshot{}, fmt.Errorf("failed to scan agent: %w", err)
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return visualization.Snapshot{}, fmt.Errorf("failed to read agents: %w", err)
	}

	rows, err = s.pool.Query(ctx, s.linkQuery)
	if err != nil {
		return visualization.Snapshot{}, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l visualization.Link
		if err := rows.Scan(&l.Source, &l.Target, &l.Weight); err != nil {
			return visualization.Snapshot{}, fmt.Errorf("failed to scan link: %w", err)
		}
		snap.Links = append(snap.Links, l)
	}
	if err := rows.Err(); err != nil {
		return visualization.Snapshot{}, fmt.Errorf("failed to read links: %w", err)
	}
	return snap, nil
}

// Close closes the connection pool
func (s *PGSource) Close() error {
	s.pool.Close()
	return nil
}
