package testutil

// InventoryMigrations returns the inventory service schema for tests
func InventoryMigrations() []string {
	return []string{
		// Catalog items
		`CREATE TABLE IF NOT EXISTS items (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			sku VARCHAR(100) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			supplier VARCHAR(255),
			unit VARCHAR(50) NOT NULL DEFAULT 'kg',
			cost_per_unit DECIMAL(12,4) NOT NULL DEFAULT 0,
			reorder_point DECIMAL(12,3) NOT NULL DEFAULT 0,
			min_stock DECIMAL(12,3) NOT NULL DEFAULT 0,
			max_stock DECIMAL(12,3) NOT NULL DEFAULT 0,
			shelf_life_days INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Ink batches
		`CREATE TABLE IF NOT EXISTS batches (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			item_id UUID NOT NULL REFERENCES items(id),
			batch_number VARCHAR(100) UNIQUE NOT NULL,
			quantity DECIMAL(12,3) NOT NULL DEFAULT 0,
			quantity_received DECIMAL(12,3) NOT NULL DEFAULT 0,
			receipt_date DATE NOT NULL,
			expiration_date DATE NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			receipt_number VARCHAR(100),
			supplier_ref VARCHAR(255),
			notes TEXT,
			version INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT quantity_non_negative CHECK (quantity >= 0),
			CONSTRAINT expiration_after_receipt CHECK (expiration_date >= receipt_date),
			CONSTRAINT status_valid CHECK (status IN ('active', 'depleted', 'scrapped'))
		)`,

		// Stock movement journal
		`CREATE TABLE IF NOT EXISTS movements (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			item_id UUID NOT NULL REFERENCES items(id),
			batch_id UUID NOT NULL REFERENCES batches(id),
			movement_type VARCHAR(20) NOT NULL,
			quantity DECIMAL(12,3) NOT NULL,
			quantity_before DECIMAL(12,3) NOT NULL,
			quantity_after DECIMAL(12,3) NOT NULL,
			reference VARCHAR(100),
			reason TEXT,
			performed_by VARCHAR(100) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Alerts with dedup key
		`CREATE TABLE IF NOT EXISTS alerts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			alert_type VARCHAR(50) NOT NULL,
			severity VARCHAR(20) NOT NULL,
			message TEXT NOT NULL,
			item_id UUID REFERENCES items(id),
			batch_id UUID REFERENCES batches(id),
			dedup_key VARCHAR(255) UNIQUE NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			is_dismissed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Customers
		`CREATE TABLE IF NOT EXISTS customers (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			contact_name VARCHAR(255),
			contact_email VARCHAR(255),
			contact_phone VARCHAR(50),
			address TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Delivery notes
		`CREATE TABLE IF NOT EXISTS delivery_notes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			note_number VARCHAR(100) UNIQUE NOT NULL,
			customer_id UUID REFERENCES customers(id),
			status VARCHAR(20) NOT NULL DEFAULT 'draft',
			issue_date DATE NOT NULL,
			notes TEXT,
			issued_by VARCHAR(100) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS delivery_note_lines (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			delivery_note_id UUID NOT NULL REFERENCES delivery_notes(id) ON DELETE CASCADE,
			item_id UUID NOT NULL REFERENCES items(id),
			batch_id UUID NOT NULL REFERENCES batches(id),
			batch_number VARCHAR(100) NOT NULL,
			quantity DECIMAL(12,3) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_batches_fefo
			ON batches (item_id, expiration_date, receipt_date, id)
			WHERE status = 'active'`,

		`CREATE INDEX IF NOT EXISTS idx_movements_item ON movements (item_id, created_at)`,

		`CREATE INDEX IF NOT EXISTS idx_alerts_unread
			ON alerts (created_at) WHERE is_read = FALSE AND is_dismissed = FALSE`,
	}
}
