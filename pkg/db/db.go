// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package db implements a simple key-value database.
// The database is cached in memory and mirrored on disk as an append-only log
// of records with xz-compressed values, compacted when it accumulates garbage.
// It is used to persist fuzzing populations between runs.
package db

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gbfuzz/gbfuzz/pkg/log"
	"github.com/gbfuzz/gbfuzz/pkg/osutil"
	"github.com/ulikunitz/xz"
)

type DB struct {
	Version uint64            // arbitrary user version (0 for new database)
	Records map[string]Record // in-memory cache, must not be modified directly

	filename    string
	uncompacted int           // number of records in the file
	pending     *bytes.Buffer // pending writes to the file
}

type Record struct {
	Val []byte
	Seq uint64
}

// Open opens (or creates) the database file. If the file is corrupted and repair is set,
// the readable records are kept and returned together with the deserialization error.
func Open(filename string, repair bool) (*DB, error) {
	db := &DB{
		filename: filename,
	}
	f, err := os.OpenFile(db.filename, os.O_RDONLY|os.O_CREATE, osutil.DefaultFilePerm)
	if err != nil {
		return nil, err
	}
	var deserializeErr error
	db.Version, db.Records, db.uncompacted, deserializeErr = deserializeDB(bufio.NewReader(f))
	f.Close()
	if deserializeErr != nil {
		if !repair {
			return nil, deserializeErr
		}
		log.Logf(0, "repairing database %v: %v", filename, deserializeErr)
	}
	if deserializeErr != nil || len(db.Records) == 0 || db.uncompacted/10*9 > len(db.Records) {
		if err := db.compact(); err != nil {
			return nil, err
		}
	}
	return db, deserializeErr
}

func (db *DB) Save(key string, val []byte, seq uint64) error {
	if seq == seqDeleted {
		return fmt.Errorf("seq %v is reserved", seq)
	}
	if rec, ok := db.Records[key]; ok && seq == rec.Seq && bytes.Equal(val, rec.Val) {
		return nil
	}
	if err := db.serialize(key, val, seq); err != nil {
		return err
	}
	db.Records[key] = Record{val, seq}
	db.uncompacted++
	return nil
}

func (db *DB) Delete(key string) error {
	if _, ok := db.Records[key]; !ok {
		return nil
	}
	if err := db.serialize(key, nil, seqDeleted); err != nil {
		return err
	}
	delete(db.Records, key)
	db.uncompacted++
	return nil
}

func (db *DB) Flush() error {
	if db.uncompacted/10*9 > len(db.Records) {
		return db.compact()
	}
	if db.pending == nil {
		return nil
	}
	f, err := os.OpenFile(db.filename, os.O_WRONLY|os.O_APPEND|os.O_CREATE, osutil.DefaultFilePerm)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(db.pending.Bytes()); err != nil {
		return err
	}
	db.pending = nil
	return nil
}

func (db *DB) BumpVersion(version uint64) error {
	if db.Version == version {
		return db.Flush()
	}
	db.Version = version
	return db.compact()
}

func (db *DB) compact() error {
	buf := new(bytes.Buffer)
	serializeHeader(buf, db.Version)
	for key, rec := range db.Records {
		if err := serializeRecord(buf, key, rec.Val, rec.Seq); err != nil {
			return err
		}
	}
	tmp := db.filename + ".tmp"
	if err := osutil.WriteFile(tmp, buf.Bytes()); err != nil {
		return err
	}
	if err := osutil.Rename(tmp, db.filename); err != nil {
		return err
	}
	db.uncompacted = len(db.Records)
	db.pending = nil
	return nil
}

func (db *DB) serialize(key string, val []byte, seq uint64) error {
	if db.pending == nil {
		db.pending = new(bytes.Buffer)
	}
	return serializeRecord(db.pending, key, val, seq)
}

const (
	dbMagic    = uint32(0x6bf0db)
	recMagic   = uint32(0x5eed5eed)
	curVersion = uint32(1)
	seqDeleted = ^uint64(0)
)

func serializeHeader(w *bytes.Buffer, version uint64) {
	binary.Write(w, binary.LittleEndian, dbMagic)
	binary.Write(w, binary.LittleEndian, curVersion)
	binary.Write(w, binary.LittleEndian, version)
}

func serializeRecord(w *bytes.Buffer, key string, val []byte, seq uint64) error {
	binary.Write(w, binary.LittleEndian, recMagic)
	binary.Write(w, binary.LittleEndian, uint32(len(key)))
	w.WriteString(key)
	binary.Write(w, binary.LittleEndian, seq)
	if seq == seqDeleted {
		if len(val) != 0 {
			return errors.New("deleting record with value")
		}
		return nil
	}
	lenPos := w.Len()
	binary.Write(w, binary.LittleEndian, uint32(0))
	if len(val) == 0 {
		return nil
	}
	startPos := w.Len()
	xw, err := xz.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := xw.Write(val); err != nil {
		return err
	}
	if err := xw.Close(); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(w.Bytes()[lenPos:], uint32(w.Len()-startPos))
	return nil
}

func deserializeDB(r *bufio.Reader) (version uint64, records map[string]Record, uncompacted int, err error) {
	records = make(map[string]Record)
	if version, err = deserializeHeader(r); err != nil {
		err = fmt.Errorf("failed to deserialize database header: %w", err)
		return
	}
	for {
		key, val, seq, recErr := deserializeRecord(r)
		if recErr == io.EOF {
			return
		}
		if recErr != nil {
			err = fmt.Errorf("failed to deserialize database record: %w", recErr)
			return
		}
		uncompacted++
		if seq == seqDeleted {
			delete(records, key)
		} else {
			records[key] = Record{val, seq}
		}
	}
}

func deserializeHeader(r *bufio.Reader) (uint64, error) {
	var magic, ver uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, err
	}
	if magic != dbMagic {
		return 0, fmt.Errorf("bad db header: 0x%x", magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &ver); err != nil {
		return 0, err
	}
	if ver == 0 || ver > curVersion {
		return 0, fmt.Errorf("bad db version: %v", ver)
	}
	var userVer uint64
	if err := binary.Read(r, binary.LittleEndian, &userVer); err != nil {
		return 0, err
	}
	return userVer, nil
}

func deserializeRecord(r *bufio.Reader) (key string, val []byte, seq uint64, err error) {
	var magic uint32
	if err = binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return
	}
	if magic != recMagic {
		err = fmt.Errorf("bad record header: 0x%x", magic)
		return
	}
	var keyLen uint32
	if err = binary.Read(r, binary.LittleEndian, &keyLen); err != nil {
		return
	}
	keyBuf := make([]byte, keyLen)
	if _, err = io.ReadFull(r, keyBuf); err != nil {
		return
	}
	key = string(keyBuf)
	if err = binary.Read(r, binary.LittleEndian, &seq); err != nil {
		return
	}
	if seq == seqDeleted {
		return
	}
	var valLen uint32
	if err = binary.Read(r, binary.LittleEndian, &valLen); err != nil {
		return
	}
	if valLen == 0 {
		return
	}
	compressed := make([]byte, valLen)
	if _, err = io.ReadFull(r, compressed); err != nil {
		return
	}
	var xr *xz.Reader
	if xr, err = xz.NewReader(bytes.NewReader(compressed)); err != nil {
		return
	}
	val, err = io.ReadAll(xr)
	return
}

// Create creates a new database in the specified file with the specified records.
func Create(filename string, version uint64, records map[string]Record) error {
	os.Remove(filename)
	db, err := Open(filename, false)
	if err != nil {
		return fmt.Errorf("failed to open database file: %w", err)
	}
	if err := db.BumpVersion(version); err != nil {
		return fmt.Errorf("failed to bump database version: %w", err)
	}
	for key, rec := range records {
		if err := db.Save(key, rec.Val, rec.Seq); err != nil {
			return err
		}
	}
	if err := db.Flush(); err != nil {
		return fmt.Errorf("failed to save database file: %w", err)
	}
	return nil
}
