/*
file: respd/internal/handlers/handlers.go
*/
// Package handlers implements the nine-command dispatch table: PING,
// SET, GET, DEL, EXPIRE, PERSIST, RENAME, RPUSH, RPOP. Each handler
// receives the store already locked by the caller (Handle), so one
// command is one atomic critical section — the exclusive-borrow model
// the store package documents.
package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/akashmaji946/respd/internal/proto"
	"github.com/akashmaji946/respd/internal/store"
)

// Handler processes one already-parsed command array and returns the
// reply to send back. args is v.Arr[1:]; the command name itself has
// already been extracted and uppercased by Handle.
type Handler func(s *store.Store, args []proto.Value) proto.Value

// Table is the command name (upper-cased) to Handler mapping.
var Table = map[string]Handler{
	"PING":    Ping,
	"SET":     Set,
	"GET":     Get,
	"DEL":     Del,
	"EXPIRE":  Expire,
	"PERSIST": Persist,
	"RENAME":  Rename,
	"RPUSH":   Rpush,
	"RPOP":    Rpop,
}

// Handle dispatches one parsed command frame v (a RESP Array whose
// elements are all Bulk-Strings) to its handler, or produces the
// "unknown command" Simple-Error if the frame is malformed or the
// command name is not in Table. Locking happens here so the command
// executes as a single atomic step, per the store package's doc
// comment.
func Handle(s *store.Store, v proto.Value) proto.Value {
	if !v.IsArray() || len(v.Arr) == 0 {
		return proto.NewSimpleError("ERR unknown command")
	}
	for _, elem := range v.Arr {
		if elem.Typ != proto.TypeBulkString {
			return proto.NewSimpleError("ERR unknown command")
		}
	}

	name := strings.ToUpper(string(v.Arr[0].Blk))
	h, ok := Table[name]
	if !ok {
		return proto.NewSimpleError("ERR unknown command")
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()
	return h(s, v.Arr[1:])
}

func errArgs(cmd string) proto.Value {
	return proto.NewSimpleError("ERR wrong number of arguments for '" + strings.ToLower(cmd) + "' command")
}

var errWrongType = proto.NewSimpleError("WRONGTYPE Operation against a key holding the wrong kind of value")
var errNoSuchKey = proto.NewSimpleError("ERR no such key")
var errInvalidInt = proto.NewSimpleError("ERR value is not an integer or out of range")

// Ping replies +PONG, or echoes a single argument as a bulk string —
// the one behavior the benchmarking client in the original sources
// actually exercises.
func Ping(s *store.Store, args []proto.Value) proto.Value {
	switch len(args) {
	case 0:
		return proto.NewSimpleString("PONG")
	case 1:
		return proto.NewBulk(args[0].Blk)
	default:
		return errArgs("PING")
	}
}

// Set implements SET key value. No prior TTL on key is preserved: a
// plain SET always replaces the value under a brand new tag (the
// "whole new incarnation" rule), dropping any pending expiry.
func Set(s *store.Store, args []proto.Value) proto.Value {
	if len(args) != 2 {
		return errArgs("SET")
	}
	key := string(args[0].Blk)
	s.Insert(key, store.Value{Str: args[1].Blk})
	return proto.NewSimpleString("OK")
}

// Get implements GET key.
func Get(s *store.Store, args []proto.Value) proto.Value {
	if len(args) != 1 {
		return errArgs("GET")
	}
	v, _, ok := s.Get(string(args[0].Blk))
	if !ok {
		return proto.NewNull()
	}
	if v.IsArray {
		return errWrongType
	}
	return proto.NewBulk(v.Str)
}

// Del implements DEL key [key ...], returning the count actually
// removed (non-existent keys are silently skipped).
func Del(s *store.Store, args []proto.Value) proto.Value {
	if len(args) < 1 {
		return errArgs("DEL")
	}
	var n int64
	for _, a := range args {
		if _, _, ok := s.Remove(string(a.Blk)); ok {
			n++
		}
	}
	return proto.NewInteger(n)
}

// Expire implements EXPIRE key seconds. seconds is parsed as an
// unsigned decimal (a leading '-' is an invalid-arguments error, not a
// negative TTL) matching the original parser's behavior; zero is
// accepted and schedules an immediate-due expiry rather than deleting
// synchronously. Re-arming an existing TTL retags the entry so the
// stale heap record is ignored when it eventually pops.
func Expire(s *store.Store, args []proto.Value) proto.Value {
	if len(args) != 2 {
		return errArgs("EXPIRE")
	}
	key := string(args[0].Blk)
	secs, err := strconv.ParseUint(string(args[1].Blk), 10, 63)
	if err != nil {
		return errInvalidInt
	}

	_, tag, ok := s.Get(key)
	if !ok {
		return proto.NewInteger(0)
	}

	if _, pending := s.Expire().GetExpiry(tag); pending {
		tag, _ = s.RetagEntry(key)
	}
	deadline := time.Now().Add(time.Duration(secs) * time.Second)
	s.Expire().Push(key, tag, deadline)
	return proto.NewInteger(1)
}

// Persist implements PERSIST key: clears any pending TTL on key by
// retagging it, which makes the heap's old record for it permanently
// stale. Reports 1 only if key existed and actually had a pending TTL.
func Persist(s *store.Store, args []proto.Value) proto.Value {
	if len(args) != 1 {
		return errArgs("PERSIST")
	}
	key := string(args[0].Blk)
	_, tag, ok := s.Get(key)
	if !ok {
		return proto.NewInteger(0)
	}
	if _, hasTTL := s.Expire().GetExpiry(tag); !hasTTL {
		return proto.NewInteger(0)
	}
	if _, ok := s.RetagEntry(key); !ok {
		return proto.NewInteger(0)
	}
	return proto.NewInteger(1)
}

// Rename implements RENAME src dst. The destination is silently
// overwritten if it already exists; the source's TTL (if any) is
// preserved by re-pushing its expiry record under the same tag but the
// new key name.
func Rename(s *store.Store, args []proto.Value) proto.Value {
	if len(args) != 2 {
		return errArgs("RENAME")
	}
	src, dst := string(args[0].Blk), string(args[1].Blk)

	_, tag, ok := s.Get(src)
	if !ok {
		return errNoSuchKey
	}

	deadline, hadTTL := s.Expire().GetExpiry(tag)

	if _, _, ok := s.Rename(src, dst); !ok {
		return errNoSuchKey
	}
	if hadTTL {
		s.Expire().Push(dst, tag, deadline)
	}
	return proto.NewSimpleString("OK")
}

// Rpush implements RPUSH key value [value ...], appending to (or
// creating) the list at key and returning its new length. A push only
// ever grows the list, so it can never leave an empty array stored.
func Rpush(s *store.Store, args []proto.Value) proto.Value {
	if len(args) < 2 {
		return errArgs("RPUSH")
	}
	key := string(args[0].Blk)

	v, tag, ok := s.EnsureArray(key)
	if !ok {
		return errWrongType
	}
	for _, a := range args[1:] {
		v.Arr = append(v.Arr, a.Blk)
	}
	s.PutWithTag(key, tag, v)
	return proto.NewInteger(int64(len(v.Arr)))
}

// Rpop implements RPOP key [count], removing and returning the last
// element of the list at key. With count given, it pops up to count
// elements tail-first and replies with an Array (fewer elements than
// count if the list is shorter); without it, it pops a single element
// and replies with a Bulk-String. Either form deletes the key entirely
// once the list is emptied: no empty array is ever stored.
func Rpop(s *store.Store, args []proto.Value) proto.Value {
	if len(args) < 1 || len(args) > 2 {
		return errArgs("RPOP")
	}
	key := string(args[0].Blk)

	hasCount := len(args) == 2
	var count int
	if hasCount {
		n, err := strconv.Atoi(string(args[1].Blk))
		if err != nil || n < 0 {
			return errInvalidInt
		}
		count = n
	}

	v, tag, ok := s.Get(key)
	if !ok {
		return proto.NewNull()
	}
	if !v.IsArray {
		return errWrongType
	}

	if !hasCount {
		last := v.Arr[len(v.Arr)-1]
		v.Arr = v.Arr[:len(v.Arr)-1]
		s.PutWithTag(key, tag, v)
		return proto.NewBulk(last)
	}

	n := count
	if n > len(v.Arr) {
		n = len(v.Arr)
	}
	popped := make([]proto.Value, n)
	for i := 0; i < n; i++ {
		last := v.Arr[len(v.Arr)-1]
		v.Arr = v.Arr[:len(v.Arr)-1]
		popped[i] = proto.NewBulk(last)
	}
	s.PutWithTag(key, tag, v)
	return proto.NewArray(popped)
}
