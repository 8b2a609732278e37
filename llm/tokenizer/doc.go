// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package tokenizer provides token counting for prompt budgeting:
// exact counts through tiktoken for OpenAI-family models, a CJK-aware
// character estimator for everything else, and a model-name registry
// with longest-prefix resolution between them.
package tokenizer
