package application

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
	"sync"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

// SchemaDir is where every module keeps its goose files inside its embedded FS.
const SchemaDir = "infrastructure/persistence/schema"

type MigrationManager interface {
	RegisterSchema(fsys fs.FS)
	Run(ctx context.Context) error
	Rollback(ctx context.Context) error
	Status(ctx context.Context) ([]*goose.MigrationStatus, error)
}

func NewMigrationManager(pool *pgxpool.Pool, logger *logrus.Logger) MigrationManager {
	return &migrationManager{pool: pool, logger: logger}
}

type migrationManager struct {
	mu      sync.Mutex
	pool    *pgxpool.Pool
	logger  *logrus.Logger
	schemas []fs.FS
}

func (m *migrationManager) RegisterSchema(fsys fs.FS) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas = append(m.schemas, fsys)
}

func (m *migrationManager) provider() (*goose.Provider, *sql.DB, error) {
	if m.pool == nil {
		return nil, nil, errors.New("migrations require a database pool")
	}
	m.mu.Lock()
	merged, err := mergeSchemas(m.schemas)
	m.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}
	db := stdlib.OpenDBFromPool(m.pool)
	p, err := goose.NewProvider(goose.DialectPostgres, db, merged)
	if err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "goose provider")
	}
	return p, db, nil
}

func (m *migrationManager) Run(ctx context.Context) error {
	p, db, err := m.provider()
	if err != nil {
		return err
	}
	defer db.Close()
	results, err := p.Up(ctx)
	if err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	for _, r := range results {
		m.logger.WithField("component", "migrations").
			WithField("duration", r.Duration).
			Infof("applied %s", r.Source.Path)
	}
	return nil
}

func (m *migrationManager) Rollback(ctx context.Context) error {
	p, db, err := m.provider()
	if err != nil {
		return err
	}
	defer db.Close()
	r, err := p.Down(ctx)
	if err != nil {
		return errors.Wrap(err, "rollback migration")
	}
	m.logger.WithField("component", "migrations").Infof("rolled back %s", r.Source.Path)
	return nil
}

func (m *migrationManager) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	p, db, err := m.provider()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return p.Status(ctx)
}

// schemaFS presents the schema directories of several modules as one flat
// directory so goose sees a single ordered sequence of versions.
type schemaFS struct {
	files map[string]fs.FS
	names []string
}

func mergeSchemas(schemas []fs.FS) (*schemaFS, error) {
	merged := &schemaFS{files: make(map[string]fs.FS)}
	for _, s := range schemas {
		sub, err := fs.Sub(s, SchemaDir)
		if err != nil {
			return nil, errors.Wrap(err, "schema dir")
		}
		matches, err := fs.Glob(sub, "*.sql")
		if err != nil {
			return nil, errors.Wrap(err, "list schema files")
		}
		for _, name := range matches {
			if _, dup := merged.files[name]; dup {
				return nil, errors.Errorf("schema file %s registered twice", name)
			}
			merged.files[name] = sub
			merged.names = append(merged.names, name)
		}
	}
	sort.Strings(merged.names)
	return merged, nil
}

func (s *schemaFS) Open(name string) (fs.File, error) {
	src, ok := s.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return src.Open(name)
}

func (s *schemaFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	entries := make([]fs.DirEntry, 0, len(s.names))
	for _, n := range s.names {
		info, err := fs.Stat(s.files[n], n)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	return entries, nil
}
