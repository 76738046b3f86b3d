// Package core drives the BSP to CSV pipeline.
//
// This package ties the format readers to the report writer and owns the
// error policy. It can be used by the batch CLI, the HTTP service, or tests
// without modification.
//
// # Pipeline
//
// One file flows through these stages:
//
//  1. [bsp.ReadEntities] validates the header and returns the entity lump
//  2. [entity.Parse] splits the lump into the world record and entities
//  3. [extract.Extractor] filters collectibles and resolves catalog names
//  4. [report.WriteFile] writes the CSV, and an optional [Sink] copies rows
//
// # Batches
//
// [Service.RunBatch] processes files one after another. A failure on one file
// is printed as a single line and the batch moves on; only the caller decides
// which errors end the process (see [Fatal]).
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - BSP001-BSP004: Format errors (magic, version, lump bounds, origin)
//   - IO001-IO005: File errors (missing, permissions, truncated, output)
//   - CAT001-CAT002: Item catalog errors (missing, malformed)
//   - RUN001-RUN003: Cancellation, timeouts and item store failures
//   - ERR000: Anything else
package core
