// Package database opens the SQLite database and keeps its schema current.
//
// Data access lives in sub-packages, each exposing a Repository over *gorm.DB:
//
//	database/
//	├── database.go   # Connection setup and migrations
//	├── mappings/     # Short link mappings (implements links.Store)
//	├── audit/        # Audit trail of admin and maintenance actions
//	└── settings/     # Key/value settings and job status
//
// Usage:
//
//	db, err := database.NewDatabase("./shortlinks.db")
//	repo := mappings.NewRepository(db.DB)
//	svc := links.NewService(repo, links.WithLocation(loc))
package database
