package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create flows table
			CREATE TABLE flows (
				id UUID PRIMARY KEY,
				code VARCHAR(255) NOT NULL UNIQUE,
				organization_code VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				icon TEXT NOT NULL DEFAULT '',
				type VARCHAR(50) NOT NULL,
				tool_set_id VARCHAR(255) NOT NULL DEFAULT '',
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				global_variable JSONB,
				enabled BOOLEAN NOT NULL DEFAULT false,
				version_code VARCHAR(255) NOT NULL DEFAULT '',
				creator VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				modifier VARCHAR(255) NOT NULL DEFAULT '',
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_flows_organization_code ON flows(organization_code);
			CREATE INDEX idx_flows_type ON flows(type);
			CREATE INDEX idx_flows_created_at ON flows(created_at);
			CREATE INDEX idx_flows_deleted_at ON flows(deleted_at);
		`,
		2: `
			-- Published versions are append-only; seq keeps creation order
			CREATE TABLE flow_versions (
				seq BIGSERIAL PRIMARY KEY,
				code VARCHAR(255) NOT NULL UNIQUE,
				flow_code VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				flow JSONB NOT NULL,
				organization_code VARCHAR(255) NOT NULL,
				creator VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_flow_versions_flow_code ON flow_versions(flow_code, seq DESC);
		`,
	}
}
