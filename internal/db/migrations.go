package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'ticket_status') THEN
			CREATE TYPE ticket_status AS ENUM ('SUBMITTED', 'ASSIGNED', 'IN_PROGRESS', 'RESOLVED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'complaint_validity') THEN
			CREATE TYPE complaint_validity AS ENUM ('UNKNOWN', 'VALID', 'INVALID');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'notification_type') THEN
			CREATE TYPE notification_type AS ENUM ('ASSIGNMENT', 'STATUS_CHANGE', 'AI_VERIFICATION');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'note_type') THEN
			CREATE TYPE note_type AS ENUM ('STATUS_CHANGE', 'ASSIGNMENT', 'COMMENT', 'SYSTEM');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS wards (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ward_no VARCHAR(10) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		admin_name VARCHAR(100),
		admin_no VARCHAR(15),
		address TEXT,
		boundary JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS contractors (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE,
		name VARCHAR(150) NOT NULL,
		phone VARCHAR(15),
		email VARCHAR(254),
		department VARCHAR(100) NOT NULL,
		rating NUMERIC(3,2) NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS ward_contractors (
		ward_id UUID NOT NULL REFERENCES wards(id) ON DELETE CASCADE,
		contractor_id UUID NOT NULL REFERENCES contractors(id) ON DELETE CASCADE,
		PRIMARY KEY (ward_id, contractor_id)
	);`,
	`CREATE TABLE IF NOT EXISTS complaints (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		session_id UUID NOT NULL,
		image_path TEXT NOT NULL,
		street VARCHAR(255),
		area VARCHAR(255) NOT NULL,
		postal_code VARCHAR(10),
		latitude NUMERIC(10,7) NOT NULL,
		longitude NUMERIC(10,7) NOT NULL,
		validity complaint_validity NOT NULL DEFAULT 'UNKNOWN',
		submitted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_session_id ON complaints (session_id);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_submitted_created ON complaints (submitted, created_at);`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ticket_number VARCHAR(20) NOT NULL UNIQUE,
		complaint_id UUID NOT NULL REFERENCES complaints(id) ON DELETE CASCADE,
		category VARCHAR(100) NOT NULL,
		severity VARCHAR(50) NOT NULL,
		department VARCHAR(100) NOT NULL,
		status ticket_status NOT NULL DEFAULT 'SUBMITTED',
		contractor_id UUID REFERENCES contractors(id) ON DELETE SET NULL,
		ward_id UUID REFERENCES wards(id) ON DELETE SET NULL,
		user_rating SMALLINT CHECK (user_rating BETWEEN 1 AND 5),
		ai_verified BOOLEAN,
		ai_verification_message TEXT,
		suggested_tools TEXT,
		safety_equipment TEXT,
		resolved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_status_created ON tickets (status, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_department_status ON tickets (department, status);`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_contractor_id ON tickets (contractor_id);`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_ward_id ON tickets (ward_id);`,
	`CREATE TABLE IF NOT EXISTS ticket_counters (
		day DATE PRIMARY KEY,
		counter INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS ticket_completions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ticket_id UUID NOT NULL UNIQUE REFERENCES tickets(id) ON DELETE CASCADE,
		contractor_id UUID NOT NULL REFERENCES contractors(id) ON DELETE CASCADE,
		after_image_path TEXT NOT NULL,
		latitude NUMERIC(10,7) NOT NULL,
		longitude NUMERIC(10,7) NOT NULL,
		distance_meters NUMERIC(10,2) NOT NULL,
		ai_verified BOOLEAN NOT NULL DEFAULT FALSE,
		ai_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ticket_id UUID NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
		type notification_type NOT NULL,
		message TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_read_created ON notifications (read, created_at);`,
	`CREATE TABLE IF NOT EXISTS ticket_notes (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ticket_id UUID NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
		type note_type NOT NULL DEFAULT 'COMMENT',
		content TEXT NOT NULL,
		created_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_ticket_notes_ticket_created ON ticket_notes (ticket_id, created_at);`,
	`CREATE OR REPLACE FUNCTION set_row_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_tickets_updated_at') THEN
			CREATE TRIGGER trg_tickets_updated_at
				BEFORE UPDATE ON tickets
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_complaints_updated_at') THEN
			CREATE TRIGGER trg_complaints_updated_at
				BEFORE UPDATE ON complaints
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(database *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return nil
}
