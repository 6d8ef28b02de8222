package database

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"filing-service/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationRecord tracks which migrations have been applied
type MigrationRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Version   string `gorm:"uniqueIndex;size:255"`
	AppliedAt int64  `gorm:"autoCreateTime"`
}

// RunMigrations runs all pending database migrations
func RunMigrations(db *gorm.DB, logger *logrus.Logger) error {
	log := logger.WithField("component", "database.migrations")
	log.Info("Starting database migrations...")

	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}

	// One model at a time so a failure names the model
	modelsToMigrate := []struct {
		name  string
		model interface{}
	}{
		{"TaxpayerProfile", &models.TaxpayerProfile{}},
		{"Invoice", &models.Invoice{}},
		{"InvoiceLineItem", &models.InvoiceLineItem{}},
	}
	for _, m := range modelsToMigrate {
		if err := db.AutoMigrate(m.model); err != nil {
			return fmt.Errorf("failed to auto-migrate %s: %w", m.name, err)
		}
		log.WithField("model", m.name).Debug("Model migrated")
	}
	log.Info("✓ Schema migrations complete")

	// AutoMigrate does not add indexes to tables that predate the model tags
	if err := ensureIndexes(db, log); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	if err := runSQLMigrations(db, log); err != nil {
		return fmt.Errorf("failed to run SQL migrations: %w", err)
	}

	log.Info("✓ All database migrations complete")
	return nil
}

// runSQLMigrations executes embedded SQL migration files in name order
func runSQLMigrations(db *gorm.DB, log *logrus.Entry) error {
	fileNames, err := migrationFiles()
	if err != nil {
		return err
	}

	for _, fileName := range fileNames {
		var record MigrationRecord
		if err := db.Where("version = ?", fileName).First(&record).Error; err == nil {
			log.WithField("migration", fileName).Debug("Skipping migration (already applied)")
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + fileName)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", fileName, err)
		}

		if err := executeSQLStatements(db, string(content), log.WithField("migration", fileName)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", fileName, err)
		}

		if err := db.Create(&MigrationRecord{Version: fileName}).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", fileName, err)
		}
		log.WithField("migration", fileName).Info("✓ Applied migration")
	}

	return nil
}

func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var fileNames []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			fileNames = append(fileNames, entry.Name())
		}
	}
	sort.Strings(fileNames)
	return fileNames, nil
}

// executeSQLStatements executes a SQL script with multiple statements
func executeSQLStatements(db *gorm.DB, sql string, log *logrus.Entry) error {
	statements := splitSQLStatements(sql)

	for i, stmt := range statements {
		stmt = stripComments(stmt)
		if stmt == "" {
			continue
		}

		preview := stmt
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}

		result := db.Exec(stmt)
		if result.Error != nil {
			if strings.Contains(result.Error.Error(), "already exists") {
				log.WithField("statement", preview).Debug("Statement skipped (already exists)")
				continue
			}
			log.WithError(result.Error).WithField("statement", preview).Error("Statement failed")
			return result.Error
		}
		log.WithFields(logrus.Fields{
			"step":      fmt.Sprintf("%d/%d", i+1, len(statements)),
			"statement": preview,
			"rows":      result.RowsAffected,
		}).Debug("Statement executed")
	}

	return nil
}

// stripComments drops whole-line "--" comments and blank lines
func stripComments(stmt string) string {
	var sqlLines []string
	for _, line := range strings.Split(stmt, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			sqlLines = append(sqlLines, line)
		}
	}
	return strings.TrimSpace(strings.Join(sqlLines, "\n"))
}

// ensureIndexes creates indexes the filing queries rely on
func ensureIndexes(db *gorm.DB, log *logrus.Entry) error {
	indexes := []struct {
		name  string
		sql   string
		model interface{}
	}{
		{
			name:  "idx_taxpayer_owner_unique",
			sql:   `CREATE UNIQUE INDEX IF NOT EXISTS idx_taxpayer_owner_unique ON taxpayer_profiles (owner_id)`,
			model: &models.TaxpayerProfile{},
		},
		{
			name:  "idx_invoice_filing",
			sql:   `CREATE INDEX IF NOT EXISTS idx_invoice_filing ON invoices (owner_id, taxable_supply_date)`,
			model: &models.Invoice{},
		},
	}

	for _, idx := range indexes {
		if !db.Migrator().HasTable(idx.model) {
			log.WithField("index", idx.name).Warn("Skipping index, table does not exist")
			continue
		}

		if err := db.Exec(idx.sql).Error; err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return err
		}
		log.WithField("index", idx.name).Debug("Created/verified index")
	}

	return nil
}

// splitSQLStatements splits SQL content into individual statements. Semicolons
// inside quoted strings and $$ bodies do not end a statement.
func splitSQLStatements(sql string) []string {
	var statements []string
	var currentStmt strings.Builder
	inString := false
	inDollar := false
	stringChar := byte(0)

	flush := func() {
		stmt := strings.TrimSpace(currentStmt.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
		currentStmt.Reset()
	}

	for i := 0; i < len(sql); i++ {
		char := sql[i]

		if !inString && char == '$' && i+1 < len(sql) && sql[i+1] == '$' {
			inDollar = !inDollar
			currentStmt.WriteString("$$")
			i++
			continue
		}

		if !inDollar && (char == '\'' || char == '"') && (i == 0 || sql[i-1] != '\\') {
			if !inString {
				inString = true
				stringChar = char
			} else if char == stringChar {
				inString = false
			}
		}

		if char == ';' && !inString && !inDollar {
			flush()
			continue
		}
		currentStmt.WriteByte(char)
	}
	flush()

	return statements
}
