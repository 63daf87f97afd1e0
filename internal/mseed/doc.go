// Package mseed reads and writes miniSEED 2 data records.
//
// It has no mseedcut-specific dependencies and could be extracted as a
// standalone library.
//
// Key types:
//   - TraceHeader: per-channel summary built from record headers only
//   - Trace: a contiguous run of decoded samples for one channel
//   - Writer: packs traces into fixed-length records
//
// Primary entry points:
//   - ReadHeaders: scans record headers without decoding sample data
//   - Read: decodes every record and merges contiguous records into traces
//   - NewWriter / Writer.WriteTrace: encodes traces as INT32, FLOAT32,
//     FLOAT64, STEIM1 or STEIM2 records with blockettes 1000 and 1001
//
// Records are read in either byte order. Records are always written
// big-endian.
package mseed
