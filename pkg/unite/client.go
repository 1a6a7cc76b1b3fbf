// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unite

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/rs/zerolog"
)

// MaxPayload is the largest UNI-TE payload that fits in one frame.
const MaxPayload = unitelway.MaxPayloadSize - unitelway.XwayHeaderSize

// MaxMessageLength is the longest supervisor message the NC displays.
const MaxMessageLength = 96

// Transactor sends one UNI-TE request and returns the UNI-TE response.
// *unitelway.Session implements it.
type Transactor interface {
	Transact(ctx context.Context, payload []byte) ([]byte, error)
	Category() byte
}

// Client issues UNI-TE requests over a transactor. It adds no locking of
// its own; the transactor serializes requests.
type Client struct {
	t   Transactor
	log zerolog.Logger
}

// NewClient creates a client. Logging is off until WithLogger is used.
func NewClient(t Transactor) *Client {
	return &Client{t: t, log: zerolog.Nop()}
}

// WithLogger sets the logger and returns c.
func (c *Client) WithLogger(l zerolog.Logger) *Client {
	c.log = l.With().Str("component", "unite").Logger()
	return c
}

// request sends code, category and params, and checks the response code
// against the static table.
func (c *Client) request(ctx context.Context, code byte, params ...byte) ([]byte, error) {
	want, ok := ResponseCode(code)
	if !ok {
		return nil, invalidParam("unknown request code 0x%02X", code)
	}
	return c.exchange(ctx, want, append([]byte{code, c.t.Category()}, params...))
}

// exchange sends payload and checks the first response byte.
func (c *Client) exchange(ctx context.Context, want byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, invalidParam("request of %d bytes exceeds %d", len(payload), MaxPayload)
	}

	c.log.Debug().Hex("request", payload).Msg("sending")
	resp, err := c.t.Transact(ctx, payload)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Hex("response", resp).Msg("received")

	if len(resp) == 0 {
		return nil, shortResponse(1, 0)
	}
	if resp[0] != want {
		return nil, &UnexpectedResponseError{Expected: want, Actual: resp[0]}
	}
	return resp, nil
}

// service sends a NUM service request and checks both response bytes.
func (c *Client) service(ctx context.Context, service byte, params ...byte) ([]byte, error) {
	payload := append([]byte{ReqService, c.t.Category(), service}, params...)
	resp, err := c.exchange(ctx, ReqService, payload)
	if err != nil {
		return nil, err
	}
	if len(resp) < 2 {
		return nil, shortResponse(2, len(resp))
	}
	if want := serviceResponse(service); resp[1] != want {
		return nil, &UnexpectedResponseError{Expected: want, Actual: resp[1]}
	}
	return resp[2:], nil
}

func le16(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, v)
}

// ============================================================
// Diagnostics
// ============================================================

// Mirror sends data and reports whether the device echoed it unchanged.
func (c *Client) Mirror(ctx context.Context, data []byte) (bool, error) {
	resp, err := c.request(ctx, ReqMirror, data...)
	if err != nil {
		return false, err
	}
	return bytes.Equal(resp[1:], data), nil
}

// Identification reads the product identification.
func (c *Client) Identification(ctx context.Context) (UnitIdentification, error) {
	resp, err := c.request(ctx, ReqIdentification)
	if err != nil {
		return UnitIdentification{}, err
	}
	return ParseIdentification(resp[1:])
}

// Status reads the status record of one axis group.
func (c *Client) Status(ctx context.Context, axisGroup byte) (UnitStatus, error) {
	resp, err := c.request(ctx, ReqStatus, axisGroup)
	if err != nil {
		return UnitStatus{}, err
	}
	return ParseStatus(resp[1:])
}

// ============================================================
// Single objects
// ============================================================

func (c *Client) readBit(ctx context.Context, code byte, addr uint16, forcing bool) (BitGroup, error) {
	resp, err := c.request(ctx, code, le16(addr)...)
	if err != nil {
		return BitGroup{}, err
	}
	return ParseBitGroup(addr, resp[1:], forcing)
}

// ReadInternalBit reads %M addr. The device answers with the whole
// aligned group of 8 bits and their forcing state.
func (c *Client) ReadInternalBit(ctx context.Context, addr uint16) (BitGroup, error) {
	return c.readBit(ctx, ReqReadInternalBit, addr, true)
}

// ReadSystemBit reads %S addr and the rest of its aligned group.
func (c *Client) ReadSystemBit(ctx context.Context, addr uint16) (BitGroup, error) {
	return c.readBit(ctx, ReqReadSystemBit, addr, false)
}

func (c *Client) readWord(ctx context.Context, code byte, addr uint16) (int16, error) {
	resp, err := c.request(ctx, code, le16(addr)...)
	if err != nil {
		return 0, err
	}
	return ParseWord(resp[1:])
}

// ReadInternalWord reads %MW addr.
func (c *Client) ReadInternalWord(ctx context.Context, addr uint16) (int16, error) {
	return c.readWord(ctx, ReqReadInternalWord, addr)
}

// ReadSystemWord reads %SW addr.
func (c *Client) ReadSystemWord(ctx context.Context, addr uint16) (int16, error) {
	return c.readWord(ctx, ReqReadSystemWord, addr)
}

// ReadConstantWord reads %KW addr.
func (c *Client) ReadConstantWord(ctx context.Context, addr uint16) (int16, error) {
	return c.readWord(ctx, ReqReadConstantWord, addr)
}

func (c *Client) readDword(ctx context.Context, code byte, addr uint16) (int32, error) {
	resp, err := c.request(ctx, code, le16(addr)...)
	if err != nil {
		return 0, err
	}
	return ParseDword(resp[1:])
}

// ReadInternalDword reads %MD addr.
func (c *Client) ReadInternalDword(ctx context.Context, addr uint16) (int32, error) {
	return c.readDword(ctx, ReqReadInternalDword, addr)
}

// ReadConstantDword reads %KD addr.
func (c *Client) ReadConstantDword(ctx context.Context, addr uint16) (int32, error) {
	return c.readDword(ctx, ReqReadConstantDword, addr)
}

func (c *Client) write(ctx context.Context, code byte, addr uint16, value []byte) error {
	_, err := c.request(ctx, code, append(le16(addr), value...)...)
	return err
}

func bitByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// WriteInternalBit sets %M addr.
func (c *Client) WriteInternalBit(ctx context.Context, addr uint16, value bool) error {
	return c.write(ctx, ReqWriteInternalBit, addr, []byte{bitByte(value)})
}

// WriteSystemBit sets %S addr.
func (c *Client) WriteSystemBit(ctx context.Context, addr uint16, value bool) error {
	return c.write(ctx, ReqWriteSystemBit, addr, []byte{bitByte(value)})
}

// WriteInternalWord sets %MW addr.
func (c *Client) WriteInternalWord(ctx context.Context, addr uint16, value int16) error {
	return c.write(ctx, ReqWriteInternalWord, addr, putWords([]int16{value}))
}

// WriteSystemWord sets %SW addr.
func (c *Client) WriteSystemWord(ctx context.Context, addr uint16, value int16) error {
	return c.write(ctx, ReqWriteSystemWord, addr, putWords([]int16{value}))
}

// WriteInternalDword sets %MD addr.
func (c *Client) WriteInternalDword(ctx context.Context, addr uint16, value int32) error {
	return c.write(ctx, ReqWriteInternalDword, addr, putDwords([]int32{value}))
}

// ============================================================
// Object requests
// ============================================================

// ReadObjects reads count objects of objType from segment, starting at
// start. It returns the response after the response code; for typed
// objects the first byte echoes objType.
func (c *Client) ReadObjects(ctx context.Context, segment, objType byte, start, count uint16) ([]byte, error) {
	params := append([]byte{segment, objType}, le16(start)...)
	params = append(params, le16(count)...)

	resp, err := c.request(ctx, ReqReadObjects, params...)
	if err != nil {
		return nil, err
	}
	return resp[1:], nil
}

// WriteObjects writes count objects of objType to segment from start.
// data holds the encoded values.
func (c *Client) WriteObjects(ctx context.Context, segment, objType byte, start, count uint16, data []byte) error {
	params := append([]byte{segment, objType}, le16(start)...)
	params = append(params, le16(count)...)
	params = append(params, data...)

	_, err := c.request(ctx, ReqWriteObjects, params...)
	return err
}

// checkCount validates an object count whose response carries size bytes
// per object, plus the code and type bytes.
func checkCount(count, size int) error {
	if count <= 0 {
		return invalidParam("count %d", count)
	}
	if 2+count*size > MaxPayload {
		return invalidParam("%d objects do not fit in one response", count)
	}
	return nil
}

func (c *Client) readBits(ctx context.Context, objType byte, start uint16, count int, forcing bool) ([]Bit, error) {
	if count%8 != 0 {
		return nil, invalidParam("bit count %d is not a multiple of 8", count)
	}
	perBit := 1
	if forcing {
		perBit = 2
	}
	if err := checkCount(count/8, perBit); err != nil {
		return nil, err
	}

	data, err := c.ReadObjects(ctx, SegmentInternalBits, objType, start, uint16(count))
	if err != nil {
		return nil, err
	}
	return ParseBits(objType, start, count, data, forcing)
}

// ReadInternalBits reads count %M bits from start with their forcing
// state. count must be a multiple of 8.
func (c *Client) ReadInternalBits(ctx context.Context, start uint16, count int) ([]Bit, error) {
	return c.readBits(ctx, TypeInternalBit, start, count, true)
}

// ReadSystemBits reads count %S bits from start. count must be a multiple
// of 8.
func (c *Client) ReadSystemBits(ctx context.Context, start uint16, count int) ([]Bit, error) {
	return c.readBits(ctx, TypeSystemBit, start, count, false)
}

func (c *Client) readWords(ctx context.Context, segment byte, start uint16, count int) ([]Value[int16], error) {
	if err := checkCount(count, 2); err != nil {
		return nil, err
	}
	data, err := c.ReadObjects(ctx, segment, TypeWord, start, uint16(count))
	if err != nil {
		return nil, err
	}
	return ParseWords(start, count, data)
}

// ReadInternalWords reads count %MW words from start.
func (c *Client) ReadInternalWords(ctx context.Context, start uint16, count int) ([]Value[int16], error) {
	return c.readWords(ctx, SegmentInternalWords, start, count)
}

// ReadSystemWords reads count %SW words from start.
func (c *Client) ReadSystemWords(ctx context.Context, start uint16, count int) ([]Value[int16], error) {
	return c.readWords(ctx, SegmentSystemWords, start, count)
}

// ReadConstantWords reads count %KW words from start.
func (c *Client) ReadConstantWords(ctx context.Context, start uint16, count int) ([]Value[int16], error) {
	return c.readWords(ctx, SegmentConstantWords, start, count)
}

func (c *Client) readDwords(ctx context.Context, segment byte, start uint16, count int) ([]Value[int32], error) {
	if err := checkCount(count, 4); err != nil {
		return nil, err
	}
	data, err := c.ReadObjects(ctx, segment, TypeDword, start, uint16(count))
	if err != nil {
		return nil, err
	}
	return ParseDwords(start, count, data)
}

// ReadInternalDwords reads count %MD double words from start, at
// addresses start, start+2, ...
func (c *Client) ReadInternalDwords(ctx context.Context, start uint16, count int) ([]Value[int32], error) {
	return c.readDwords(ctx, SegmentInternalWords, start, count)
}

// ReadConstantDwords reads count %KD double words from start, at
// addresses start, start+2, ...
func (c *Client) ReadConstantDwords(ctx context.Context, start uint16, count int) ([]Value[int32], error) {
	return c.readDwords(ctx, SegmentConstantWords, start, count)
}

// ReadFloats reads count internal floats from start, at addresses start,
// start+2, ...
func (c *Client) ReadFloats(ctx context.Context, start uint16, count int) ([]Value[float32], error) {
	if err := checkCount(count, 4); err != nil {
		return nil, err
	}
	data, err := c.ReadObjects(ctx, SegmentInternalWords, TypeFloat, start, uint16(count))
	if err != nil {
		return nil, err
	}
	return ParseFloats(start, count, data)
}

func (c *Client) writeWords(ctx context.Context, segment byte, start uint16, values []int16) error {
	if err := checkWrite(len(values), 2); err != nil {
		return err
	}
	return c.WriteObjects(ctx, segment, TypeWord, start, uint16(len(values)), putWords(values))
}

// checkWrite validates an object write of count values of size bytes
// behind the 8-byte object request header.
func checkWrite(count, size int) error {
	if count == 0 {
		return invalidParam("nothing to write")
	}
	if 8+count*size > MaxPayload {
		return invalidParam("%d objects do not fit in one request", count)
	}
	return nil
}

// WriteInternalWords writes values to %MW from start.
func (c *Client) WriteInternalWords(ctx context.Context, start uint16, values []int16) error {
	return c.writeWords(ctx, SegmentInternalWords, start, values)
}

// WriteSystemWords writes values to %SW from start.
func (c *Client) WriteSystemWords(ctx context.Context, start uint16, values []int16) error {
	return c.writeWords(ctx, SegmentSystemWords, start, values)
}

// WriteInternalDwords writes values to %MD from start, at addresses
// start, start+2, ...
func (c *Client) WriteInternalDwords(ctx context.Context, start uint16, values []int32) error {
	if err := checkWrite(len(values), 4); err != nil {
		return err
	}
	return c.WriteObjects(ctx, SegmentInternalWords, TypeDword, start, uint16(len(values)), putDwords(values))
}

// ============================================================
// NC mode
// ============================================================

// ReadMode reads the current operating mode. The mode object answers with
// one byte of no meaning and then the mode as a little-endian word.
func (c *Client) ReadMode(ctx context.Context) (Mode, error) {
	data, err := c.ReadObjects(ctx, byte(ObjModeSelection), 0x00, 0, 1)
	if err != nil {
		return 0, err
	}
	if len(data) < 3 {
		return 0, shortResponse(4, len(data)+1)
	}
	return Mode(binary.LittleEndian.Uint16(data[1:])), nil
}

// WriteMode selects an operating mode.
func (c *Client) WriteMode(ctx context.Context, m Mode) error {
	if !m.Valid() {
		return invalidParam("mode %s", m)
	}
	return c.WriteObjects(ctx, byte(ObjModeSelection), 0x00, 0, 1, le16(uint16(m)))
}

// ============================================================
// Service requests
// ============================================================

// ramBusy is the status byte of a RAM query made while the programme area
// is in use.
const ramBusy = 0x02

// AvailableRAM returns the number of free bytes in the NC programme RAM.
func (c *Client) AvailableRAM(ctx context.Context) (uint32, error) {
	data, err := c.service(ctx, ServiceAvailableRAM)
	if err != nil {
		return 0, err
	}
	if len(data) < 1 {
		return 0, shortResponse(3, 2)
	}
	if data[0] == ramBusy {
		return 0, ErrOperationInProgrammeArea
	}
	if len(data) < 5 {
		return 0, shortResponse(7, len(data)+2)
	}
	return binary.LittleEndian.Uint32(data[1:]), nil
}

// SendSupervisorMessage shows text on the NC screen. text is limited to
// MaxMessageLength bytes.
func (c *Client) SendSupervisorMessage(ctx context.Context, text string) error {
	if len(text) > MaxMessageLength {
		return invalidParam("message of %d characters exceeds %d", len(text), MaxMessageLength)
	}
	payload := []byte{ReqService, c.t.Category(), ServiceSupervisorMessage, byte(len(text))}
	payload = append(payload, text...)

	_, err := c.exchange(ctx, RespWriteOK, payload)
	return err
}

// FaultHistory reads the NC fault history.
func (c *Client) FaultHistory(ctx context.Context) (FaultHistory, error) {
	data, err := c.service(ctx, ServiceFaultHistory)
	if err != nil {
		return FaultHistory{}, err
	}
	return ParseFaultHistory(data)
}
