// Package motion carries MotionRecords from the tracker to the renderer as
// fixed 12-byte UDP datagrams.
package motion

import (
	"encoding/binary"
	"math"

	"github.com/Tutortoise/ascii-vtuber/faults"
	"github.com/Tutortoise/ascii-vtuber/models"
)

const (
	// RecordSize is the exact datagram length: pitch, yaw, roll as float32.
	RecordSize = 12

	DefaultAddr = "127.0.0.1:4000"
	DefaultPort = 4000
)

// Encode packs rec as three little-endian IEEE-754 float32 values in the
// order pitch, yaw, roll.
func Encode(rec models.MotionRecord) []byte {
	b := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(rec.Pitch))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(rec.Yaw))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(rec.Roll))
	return b
}

// Decode is the inverse of Encode. Any length other than RecordSize is a
// ProtocolDecodeFault, which receivers drop without touching prior state.
func Decode(b []byte) (models.MotionRecord, error) {
	if len(b) != RecordSize {
		return models.MotionRecord{}, faults.New(faults.ProtocolDecodeFault, "motion datagram is %d bytes, want %d", len(b), RecordSize)
	}
	return models.MotionRecord{
		Pitch: math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		Yaw:   math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		Roll:  math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	}, nil
}

// DecodeFinite is Decode plus a check that every angle is finite. Receivers
// use it so a corrupt datagram never replaces a usable pose.
func DecodeFinite(b []byte) (models.MotionRecord, error) {
	rec, err := Decode(b)
	if err != nil {
		return rec, err
	}
	for _, v := range [...]float32{rec.Pitch, rec.Yaw, rec.Roll} {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return models.MotionRecord{}, faults.New(faults.ProtocolDecodeFault, "non-finite angle in motion record %+v", rec)
		}
	}
	return rec, nil
}
