package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"triarb/internal/domain"
)

// CSVSink is an append-only CSV record store. The first write to a fresh file
// emits a header row; every Append adds one row per qualifying event. Columns
// after the fixed prefix are <SYMBOL>_bid, <SYMBOL>_ask pairs in the
// configured instrument order.
type CSVSink struct {
	mu      sync.Mutex
	file    *os.File
	writer  *csv.Writer
	symbols []string
}

// NewCSVSink opens (or creates) the store at path. symbols fixes the snapshot
// column order for the lifetime of the file.
func NewCSVSink(path string, symbols []string) (*CSVSink, error) {
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open csv sink: %w", err)
	}

	sink := &CSVSink{
		file:    file,
		writer:  csv.NewWriter(file),
		symbols: symbols,
	}

	if fresh {
		if err := sink.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}
	return sink, nil
}

func (s *CSVSink) writeHeader() error {
	header := []string{"timestamp", "cycle", "edge", "edge_pct", "sim_pnl"}
	for _, sym := range s.symbols {
		header = append(header, sym+"_bid", sym+"_ask")
	}
	if err := s.writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Append writes one record row and flushes it to disk.
func (s *CSVSink) Append(rec domain.AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		rec.Timestamp.Format("2006-01-02 15:04:05.000"),
		rec.CycleID,
		formatFloat(rec.Edge),
		formatFloat(rec.EdgePct),
		formatFloat(rec.SimPnL),
	}
	for _, sym := range s.symbols {
		if q, ok := rec.Quotes[sym]; ok {
			row = append(row, formatFloat(q.Bid), formatFloat(q.Ask))
		} else {
			row = append(row, "", "")
		}
	}

	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("append csv row: %w", err)
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes pending rows and closes the file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
