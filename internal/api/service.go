/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"fmt"

	"bank-ledger-go/internal/interest"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/store"
)

// LedgerService is the surface a transport layer calls. Every method takes
// the authenticated owner id explicitly.
type LedgerService struct {
	store   store.LedgerStore
	engine  *ledger.Engine
	accrual *interest.Engine
}

func NewLedgerService(s store.LedgerStore, engine *ledger.Engine, accrual *interest.Engine) *LedgerService {
	return &LedgerService{
		store:   s,
		engine:  engine,
		accrual: accrual,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
