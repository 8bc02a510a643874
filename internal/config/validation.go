package config

import "fmt"

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// Corpus configuration
	if c.CorpusDir == "" {
		return fmt.Errorf("%w: corpus_dir cannot be empty", ErrInvalidCorpusDir)
	}

	// Chunking: overlap must leave the window a positive stride,
	// otherwise the splitter never advances.
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d (chunk_size %d)",
			ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}

	// Retrieval configuration
	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Generation configuration
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxOutputTokens < 1 || c.MaxOutputTokens > 65536 {
		return fmt.Errorf("%w: must be between 1 and 65,536, got %d", ErrInvalidMaxTokens, c.MaxOutputTokens)
	}

	// Index persistence
	if c.IndexDir == "" {
		return fmt.Errorf("%w: index_dir cannot be empty", ErrInvalidIndexDir)
	}

	return nil
}
