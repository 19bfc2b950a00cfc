package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/types"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

type Service struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

// NewService opens the relational store. DB_DRIVER selects postgres or
// sqlite; sqlite is the default so the server runs without external infra.
func NewService(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "sqlite", log))

	var gdb *gorm.DB
	var err error
	switch driver {
	case "postgres":
		host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		port := utils.GetEnv("POSTGRES_PORT", "5432", log)
		user := utils.GetEnv("POSTGRES_USER", "postgres", log)
		password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		name := utils.GetEnv("POSTGRES_NAME", "storyloom", log)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

		serviceLog.Info("Connecting to Postgres...")
		gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "storyloom.db", log)
		serviceLog.Info("Opening sqlite database...", "path", path)
		gdb, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if err != nil {
		serviceLog.Error("Failed to connect to database", "driver", driver, "error", err)
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	return &Service{db: gdb, driver: driver, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Story{},
		&types.Scene{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}

	if s.driver == "postgres" {
		s.log.Info("Configuring foreign key relationships...")
		fks := []string{
			`ALTER TABLE "user_token"
       ADD CONSTRAINT "fk_user_token_user_id"
       FOREIGN KEY ("user_id") REFERENCES "user"("id")
       ON DELETE CASCADE`,
			`ALTER TABLE "story"
       ADD CONSTRAINT "fk_story_user_id"
       FOREIGN KEY ("user_id") REFERENCES "user"("id")
       ON DELETE CASCADE`,
			`ALTER TABLE "scene"
       ADD CONSTRAINT "fk_scene_story_id"
       FOREIGN KEY ("story_id") REFERENCES "story"("id")
       ON DELETE CASCADE`,
		}
		for _, stmt := range fks {
			if err := s.db.Exec(stmt).Error; err != nil {
				// already present on re-migration
				s.log.Debug("FK statement skipped", "error", err)
			}
		}
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
