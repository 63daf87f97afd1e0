// Package extract cuts a time window out of an archive file and writes it
// as a new miniSEED file.
//
// An extraction runs in three steps so the output name can be derived from
// the snapped segment start before anything touches the disk:
//
//	seg, err := ex.Cut(ctx, path, req)        // read + trim, no writes
//	ex.DecideEncoding(seg)                    // float32 vs integer encoding
//	res, err := ex.Write(ctx, seg, outputPath) // temp file + rename
//
// Every trace is trimmed independently with nearest-sample snapping, so
// channels with different rates may start or end at slightly different
// instants.
package extract
