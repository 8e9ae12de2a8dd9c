package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DefaultPrompt seeds the prompt slot on first startup.
const DefaultPrompt = `Please analyze this image from a security camera.
Focus on:
1. Are there any people or objects of interest visible?
2. Describe any potential issues or anomalies you can detect.
3. Is there any text visible in the image? If so, what does it say?

Provide a detailed but concise analysis.`

// FallbackPrompt is used when the slot is missing at read time.
const FallbackPrompt = "Please analyze this image."

var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// PromptRepo stores the single global analysis prompt (row id 1).
type PromptRepo struct {
	db *DB
}

func NewPromptRepo(db *DB) *PromptRepo {
	return &PromptRepo{db: db}
}

// Seed writes prompt only if the slot is empty.
func (r *PromptRepo) Seed(ctx context.Context, prompt string) error {
	query := r.db.rebind(`INSERT INTO custom_prompt (id, prompt) VALUES (1, ?) ON CONFLICT DO NOTHING`)
	if _, err := r.db.conn.ExecContext(ctx, query, prompt); err != nil {
		return fmt.Errorf("failed to seed prompt: %w", err)
	}
	return nil
}

func (r *PromptRepo) Get(ctx context.Context) (string, error) {
	var prompt string
	err := r.db.conn.QueryRowContext(ctx, "SELECT prompt FROM custom_prompt WHERE id = 1").Scan(&prompt)
	if errors.Is(err, sql.ErrNoRows) {
		return FallbackPrompt, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get prompt: %w", err)
	}
	return prompt, nil
}

func (r *PromptRepo) Set(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}

	query := r.db.rebind(`
		INSERT INTO custom_prompt (id, prompt) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET prompt = excluded.prompt`)
	if _, err := r.db.conn.ExecContext(ctx, query, prompt); err != nil {
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	return nil
}
