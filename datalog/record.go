package datalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sigurn/crc16"

	"serialctl/frame"
)

var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// Record is one persisted batch.
type Record struct {
	At     time.Time
	Sensor string
	Batch  frame.Batch
}

func checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// FormatRecord renders r as one tab-separated line without the newline:
// time, sensor, the batch in wire form, CRC-16/MODBUS of the wire form.
func FormatRecord(r Record) string {
	encoded := frame.Encode(r.Batch)
	return fmt.Sprintf("%s\t%s\t%s\t%04x",
		r.At.UTC().Format(time.RFC3339Nano), r.Sensor, encoded, checksum(encoded))
}

// ParseRecord parses and verifies a line written by FormatRecord.
func ParseRecord(line string) (Record, error) {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(parts) != 4 {
		return Record{}, errors.Errorf("expected 4 fields, got %d", len(parts))
	}
	at, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Record{}, errors.Wrap(err, "parsing time")
	}
	sum, err := strconv.ParseUint(parts[3], 16, 16)
	if err != nil {
		return Record{}, errors.Wrap(err, "parsing checksum")
	}
	if got := checksum([]byte(parts[2])); got != uint16(sum) {
		return Record{}, errors.Errorf("checksum mismatch: record says %04x, data gives %04x", sum, got)
	}
	batch, err := frame.Decode([]byte(parts[2]))
	if err != nil {
		return Record{}, err
	}
	return Record{At: at, Sensor: parts[1], Batch: batch}, nil
}
