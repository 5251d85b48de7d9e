package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pablogps/EspNeat-sub001/neat"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// VersionedRecord tags every stored payload.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

func currentVersion() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

type genomeRecord struct {
	VersionedRecord
	Genome neat.GenomeSnapshot `json:"genome"`
}

type factoryRecord struct {
	VersionedRecord
	Factory neat.FactoryState `json:"factory"`
}

func EncodeGenome(g neat.GenomeSnapshot) ([]byte, error) {
	return json.Marshal(genomeRecord{VersionedRecord: currentVersion(), Genome: g})
}

func DecodeGenome(data []byte) (neat.GenomeSnapshot, error) {
	var record genomeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return neat.GenomeSnapshot{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return neat.GenomeSnapshot{}, err
	}
	return record.Genome, nil
}

func EncodeFactoryState(s neat.FactoryState) ([]byte, error) {
	return json.Marshal(factoryRecord{VersionedRecord: currentVersion(), Factory: s})
}

func DecodeFactoryState(data []byte) (neat.FactoryState, error) {
	var record factoryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return neat.FactoryState{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return neat.FactoryState{}, err
	}
	return record.Factory, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
