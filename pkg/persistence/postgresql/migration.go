package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE users (
				email VARCHAR(320) PRIMARY KEY,
				full_name VARCHAR(255) NOT NULL,
				phone VARCHAR(32) NOT NULL,
				role VARCHAR(8) NOT NULL CHECK (role IN ('HR', 'L1', 'L2', 'L3')),
				password_hash TEXT NOT NULL,
				experience INT,
				band VARCHAR(64),
				skill VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE campaigns (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				note TEXT NOT NULL DEFAULT '',
				start_date DATE NOT NULL,
				end_date DATE NOT NULL,
				status VARCHAR(16) NOT NULL CHECK (status IN ('Active', 'Completed')),
				owner VARCHAR(320) NOT NULL,
				job_descriptions JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				CHECK (end_date >= start_date)
			);

			CREATE INDEX idx_campaigns_owner ON campaigns(owner);
			CREATE INDEX idx_campaigns_status ON campaigns(status);
			CREATE INDEX idx_campaigns_end_date ON campaigns(end_date);

			CREATE TABLE campaign_reviewers (
				campaign_id UUID NOT NULL REFERENCES campaigns(id),
				role VARCHAR(8) NOT NULL CHECK (role IN ('HR', 'L1', 'L2', 'L3')),
				email VARCHAR(320) NOT NULL,
				position SERIAL,
				PRIMARY KEY (campaign_id, role, email)
			);

			CREATE INDEX idx_campaign_reviewers_email ON campaign_reviewers(email);
		`,
		2: `
			CREATE TABLE candidates (
				id UUID PRIMARY KEY,
				campaign_id UUID NOT NULL REFERENCES campaigns(id),
				full_name VARCHAR(255) NOT NULL,
				email VARCHAR(320) NOT NULL,
				phone VARCHAR(32) NOT NULL,
				app_status VARCHAR(16) NOT NULL,
				l1_status VARCHAR(16) NOT NULL DEFAULT 'Pending',
				l1_feedback TEXT NOT NULL DEFAULT '',
				l2_status VARCHAR(16) NOT NULL DEFAULT 'Pending',
				l2_feedback TEXT NOT NULL DEFAULT '',
				l3_status VARCHAR(16) NOT NULL DEFAULT 'Pending',
				l3_feedback TEXT NOT NULL DEFAULT '',
				hr_status VARCHAR(16) NOT NULL DEFAULT 'Pending',
				hr_feedback TEXT NOT NULL DEFAULT '',
				resume_key VARCHAR(512) NOT NULL DEFAULT '',
				resume_file_name VARCHAR(255) NOT NULL DEFAULT '',
				resume_content_type VARCHAR(255) NOT NULL DEFAULT '',
				resume_size BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_candidates_campaign_id ON candidates(campaign_id, created_at);
		`,
	}
}
