/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/


// Package trn is a caching client for the TRN rugby statistics API.
//
// A Client turns nested API responses into a flat, merge-only entity
// cache and decides per resource kind whether the cache already answers a
// request.
//
// # Design
//
// The Client owns three things:
//
//   - Store: the entity cache (package cache). It is keyed by store key
//     and id, holds normalized records whose relations are replaced by id
//     references, and only ever grows. Readers take a lock-free snapshot.
//
//   - Guards: one per resource kind (package guard). A guard looks up the
//     requested identity under its declared policy (NONE, EXISTS,
//     EXISTS_WITH_FIELDS) and either returns nil or a descriptor of the
//     fetch to make.
//
//   - Pipeline: the request lifecycle (package pipeline). A descriptor is
//     validated and its request event emitted synchronously. The body is
//     then fetched and normalized in the background, and exactly one
//     terminal event follows.
//
// The schema graph and the guards come from an apis.Builder. The default
// builder (package builder) declares the TRN catalog: configuration,
// competitions, matches, team and player match stats, standings and
// fixtures. Registry and guards live in an immutable state that is
// swapped atomically by SetConfig and SetBuilder; the cache survives the
// swap.
//
// # Usage
//
//	c, err := trn.New(trn.WithConfig(config.NewConfig(config.WithTimeout(5 * time.Second))))
//	if err != nil {
//		return err
//	}
//	req, err := c.LoadCompetition(ctx, "7", "name", "rounds")
//	if err != nil {
//		return err // catalog or descriptor problem
//	}
//	if req != nil {
//		ev := req.Wait()
//		if ev.Phase == apis.Failed {
//			log.Println(c.ErrorMessage())
//		}
//	}
//	comp, ok := c.Snapshot().Get(builder.StoreComp, apis.Key{"7"})
//
// Fetch failures never return from Load. They arrive as failure events
// and as the client's error message.
package trn
