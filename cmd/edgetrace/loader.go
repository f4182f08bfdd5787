package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/slatewise/agreement/consensus/windowed/model"
)

// loadVotes reads a vote log from CSV, one event per line:
//
//	time_ms,validator,object
//
// Lines that do not decode are collected into one combined error; the
// decodable remainder is still returned so the caller can decide
// whether to proceed.
func loadVotes(path string) ([]model.VoteEvent[float64, uint32], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open votes file: %w", err)
	}
	defer f.Close()
	return decodeVotes(f)
}

func decodeVotes(r io.Reader) ([]model.VoteEvent[float64, uint32], error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	var events []model.VoteEvent[float64, uint32]
	var result *multierror.Error
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result = multierror.Append(result, model.NewInvalidVoteEventErrorf(line, "malformed csv: %v", err))
			continue
		}
		if len(record) != 3 {
			result = multierror.Append(result, model.NewInvalidVoteEventErrorf(line, "expected 3 fields, got %d", len(record)))
			continue
		}
		ms, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			result = multierror.Append(result, model.NewInvalidVoteEventErrorf(line, "bad time %q: %v", record[0], err))
			continue
		}
		validator, err := strconv.ParseUint(record[1], 10, 32)
		if err != nil {
			result = multierror.Append(result, model.NewInvalidVoteEventErrorf(line, "bad validator %q: %v", record[1], err))
			continue
		}
		object, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			result = multierror.Append(result, model.NewInvalidVoteEventErrorf(line, "bad object %q: %v", record[2], err))
			continue
		}
		events = append(events, model.VoteEvent[float64, uint32]{
			Time:      timeFromMillis(ms),
			Validator: uint32(validator),
			Object:    object,
		})
	}
	return events, result.ErrorOrNil()
}

// loadWeights reads per-validator weights from CSV, one per line:
//
//	validator,weight
func loadWeights(path string) (map[uint32]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open weights file: %w", err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	weights := make(map[uint32]uint64)
	var result *multierror.Error
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result = multierror.Append(result, model.NewInvalidVoteEventErrorf(line, "malformed csv: %v", err))
			continue
		}
		if len(record) != 2 {
			result = multierror.Append(result, model.NewInvalidVoteEventErrorf(line, "expected 2 fields, got %d", len(record)))
			continue
		}
		validator, err := strconv.ParseUint(record[0], 10, 32)
		if err != nil {
			result = multierror.Append(result, model.NewInvalidVoteEventErrorf(line, "bad validator %q: %v", record[0], err))
			continue
		}
		weight, err := strconv.ParseUint(record[1], 10, 64)
		if err != nil {
			result = multierror.Append(result, model.NewInvalidVoteEventErrorf(line, "bad weight %q: %v", record[1], err))
			continue
		}
		weights[uint32(validator)] = weight
	}
	return weights, result.ErrorOrNil()
}
