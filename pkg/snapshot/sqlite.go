package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/glebarez/sqlite"
	"github.com/spf13/afero"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anchore/cwe-lookup/pkg/nvd"
)

const sqliteBatchSize = 500

var errNotOsFs = errors.New("sqlite snapshots can only be used with the OS filesystem")

type recordModel struct {
	ID     string `gorm:"column:id;primaryKey"`
	Record string `gorm:"column:record;not null"`
}

func (recordModel) TableName() string {
	return "cve_records"
}

func newRecordModel(r nvd.CVE) (recordModel, error) {
	by, err := json.Marshal(r)
	if err != nil {
		return recordModel{}, fmt.Errorf("unable to encode record %q: %w", r.ID, err)
	}
	return recordModel{ID: r.ID, Record: string(by)}, nil
}

func (m recordModel) inflate() (*nvd.CVE, error) {
	var r nvd.CVE
	if err := json.Unmarshal([]byte(m.Record), &r); err != nil {
		return nil, fmt.Errorf("unable to decode record %q: %w", m.ID, err)
	}
	return &r, nil
}

func openDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite snapshot %q: %w", path, err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s Store) writeSQLite(path string, snap Snapshot) (string, error) {
	if _, ok := s.fs.(*afero.OsFs); !ok {
		return "", errNotOsFs
	}

	tmp := path + ".tmp"
	if err := s.fs.RemoveAll(tmp); err != nil {
		return "", fmt.Errorf("unable to clear temporary snapshot %q: %w", tmp, err)
	}

	db, err := openDB(tmp)
	if err != nil {
		return tmp, err
	}

	if err := writeRecords(db, snap); err != nil {
		_ = closeDB(db)
		return tmp, err
	}

	if err := closeDB(db); err != nil {
		return tmp, fmt.Errorf("unable to close sqlite snapshot: %w", err)
	}
	return tmp, nil
}

func writeRecords(db *gorm.DB, snap Snapshot) error {
	if err := db.AutoMigrate(&recordModel{}); err != nil {
		return fmt.Errorf("unable to create snapshot schema: %w", err)
	}

	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	models := make([]recordModel, 0, len(ids))
	for _, id := range ids {
		m, err := newRecordModel(snap[id])
		if err != nil {
			return err
		}
		models = append(models, m)
	}

	if len(models) == 0 {
		return nil
	}

	if err := db.CreateInBatches(models, sqliteBatchSize).Error; err != nil {
		return fmt.Errorf("unable to write snapshot records: %w", err)
	}
	return nil
}

// sqliteReader reads records on demand instead of loading the whole snapshot into memory.
type sqliteReader struct {
	db *gorm.DB
}

var _ Reader = (*sqliteReader)(nil)

func (s Store) openSQLite(path string) (*sqliteReader, error) {
	if _, ok := s.fs.(*afero.OsFs); !ok {
		return nil, errNotOsFs
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if !db.Migrator().HasTable(&recordModel{}) {
		_ = closeDB(db)
		return nil, fmt.Errorf("sqlite snapshot %q has no %s table", path, recordModel{}.TableName())
	}
	return &sqliteReader{db: db}, nil
}

func (r *sqliteReader) Get(id string) (*nvd.CVE, bool, error) {
	var models []recordModel
	if err := r.db.Where("id = ?", id).Limit(1).Find(&models).Error; err != nil {
		return nil, false, fmt.Errorf("unable to query snapshot for %q: %w", id, err)
	}
	if len(models) == 0 {
		return nil, false, nil
	}
	record, err := models[0].inflate()
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (r *sqliteReader) all() (Snapshot, error) {
	snap := New()
	var batch []recordModel
	err := r.db.FindInBatches(&batch, sqliteBatchSize, func(_ *gorm.DB, _ int) error {
		for _, m := range batch {
			record, err := m.inflate()
			if err != nil {
				return err
			}
			snap.Add(*record)
		}
		return nil
	}).Error
	if err != nil {
		return nil, fmt.Errorf("unable to read snapshot records: %w", err)
	}
	return snap, nil
}

func (r *sqliteReader) Count() (int, error) {
	var count int64
	if err := r.db.Model(&recordModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("unable to count snapshot records: %w", err)
	}
	return int(count), nil
}

func (r *sqliteReader) Close() error {
	return closeDB(r.db)
}
