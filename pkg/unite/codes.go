// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package unite implements the UNI-TE application requests carried over a
// UNI-TELWAY session: memory reads and writes, object access, unit status,
// identification and the NUM service requests.
package unite

import "fmt"

// Request codes
const (
	ReqReadInternalBit    = 0x00
	ReqReadSystemBit      = 0x01
	ReqReadInternalWord   = 0x04
	ReqReadConstantWord   = 0x05
	ReqReadSystemWord     = 0x06
	ReqIdentification     = 0x0F
	ReqWriteInternalBit   = 0x10
	ReqWriteSystemBit     = 0x11
	ReqWriteInternalWord  = 0x14
	ReqWriteSystemWord    = 0x15
	ReqStatus             = 0x31
	ReqReadObjects        = 0x36
	ReqWriteObjects       = 0x37
	ReqReadInternalDword  = 0x40
	ReqReadConstantDword  = 0x41
	ReqWriteInternalDword = 0x46
	ReqService            = 0xF5 // NUM service requests, see Service*
	ReqMirror             = 0xFA
)

// Response codes that are not request code + 0x30
const (
	RespWriteOK = 0xFE
	RespMirror  = 0xFB
	RespFailure = 0xFD
)

// responseCodes maps every request code to its expected response code.
var responseCodes = map[byte]byte{
	ReqReadInternalBit:    0x30,
	ReqReadSystemBit:      0x31,
	ReqReadInternalWord:   0x34,
	ReqReadConstantWord:   0x35,
	ReqReadSystemWord:     0x36,
	ReqIdentification:     0x3F,
	ReqWriteInternalBit:   RespWriteOK,
	ReqWriteSystemBit:     RespWriteOK,
	ReqWriteInternalWord:  RespWriteOK,
	ReqWriteSystemWord:    RespWriteOK,
	ReqStatus:             0x61,
	ReqReadObjects:        0x66,
	ReqWriteObjects:       RespWriteOK,
	ReqReadInternalDword:  0x70,
	ReqReadConstantDword:  0x71,
	ReqWriteInternalDword: RespWriteOK,
	ReqService:            ReqService,
	ReqMirror:             RespMirror,
}

// ResponseCode returns the response code a device sends back for a
// successful request.
func ResponseCode(req byte) (byte, bool) {
	code, ok := responseCodes[req]
	return code, ok
}

// Service sub-codes, the byte after the category in a ReqService request.
// The response repeats ReqService followed by the sub-code + 0x30.
const (
	ServiceFaultHistory      = 0x44
	ServiceAvailableRAM      = 0x47
	ServiceSupervisorMessage = 0x4D
)

// serviceResponse returns the second byte of a service response.
func serviceResponse(service byte) byte {
	return service + 0x30
}

// Segments for ReadObjects / WriteObjects
const (
	SegmentInternalBits  = 0x64
	SegmentInternalWords = 0x68
	SegmentConstantWords = 0x69
	SegmentSystemWords   = 0x6A
)

// Object types for ReadObjects / WriteObjects
const (
	TypeInternalBit = 0x05
	TypeSystemBit   = 0x06
	TypeWord        = 0x07
	TypeDword       = 0x08
	TypeFloat       = 0x0A
)

// Object is a NUM CNC object family, used as the segment of an object
// request with object type 0.
type Object byte

const (
	ObjAxisPositionReference            Object = 0x80
	ObjAxisMeasurement                  Object = 0x81
	ObjAxisDat1Values                   Object = 0x82
	ObjAxisDat2Values                   Object = 0x83
	ObjAxisDat3Values                   Object = 0x84
	ObjMinimumDynamicAxisTravel         Object = 0x85
	ObjMaximumDynamicAxisTravel         Object = 0x86
	ObjInclinedAxisAngularValue         Object = 0x87
	ObjMachineZeroPoint                 Object = 0x88
	ObjMinimumStaticTravel              Object = 0x89
	ObjMaximumStaticTravel              Object = 0x8A
	ObjCurrentCorrectionsSlaveAxis      Object = 0x8B
	ObjAxisPositionReferenceAxiswise    Object = 0x8C
	ObjAxisMeasurementAxiswise          Object = 0x8D
	ObjDrivenAxes                       Object = 0x8F
	ObjMeasuredSpindleSpeedSetting      Object = 0x90
	ObjMeasuredSpindleReferencePosition Object = 0x91
	ObjToolCorrections                  Object = 0x92
	ObjHVariableDynamicCorrectors       Object = 0x93
	ObjInterpolationStatus              Object = 0x94
	ObjHomingNotDoneOnAxes              Object = 0x95
	ObjLocalDataParametersE             Object = 0x96
	ObjMasterAxisReferencePosition      Object = 0x97
	ObjSlaveAxisCorrection              Object = 0x98
	ObjProgrammeStatus                  Object = 0x99
	ObjBlockEndDimensions               Object = 0x9D
	ObjModeSelection                    Object = 0xB4
	ObjCurrentProgrammeNumber           Object = 0xB5
	ObjDataToRunningProgramme           Object = 0xE0
	ObjBlockingMessageAck               Object = 0xE2
)

// Mode is the NUM operating mode.
type Mode uint16

const (
	ModeAuto                 Mode = 0x00
	ModeSingleStep           Mode = 0x01
	ModeMDI                  Mode = 0x02
	ModeDryRun               Mode = 0x03
	ModeSequenceNumberSearch Mode = 0x04
	ModeEdit                 Mode = 0x05
	ModeTest                 Mode = 0x06
	ModeManual               Mode = 0x07
	ModeHoming               Mode = 0x08
	ModeShift                Mode = 0x09
	ModeToolSet              Mode = 0x0A
	ModeLoad                 Mode = 0x0D
	ModeUnload               Mode = 0x0F
)

var modeNames = map[Mode]string{
	ModeAuto:                 "AUTO",
	ModeSingleStep:           "SINGLE_STEP",
	ModeMDI:                  "MDI",
	ModeDryRun:               "DRYRUN",
	ModeSequenceNumberSearch: "SEQUENCE_NUMBER_SEARCH",
	ModeEdit:                 "EDIT",
	ModeTest:                 "TEST",
	ModeManual:               "MANUAL",
	ModeHoming:               "HOMING",
	ModeShift:                "SHIFT",
	ModeToolSet:              "TOOL_SET",
	ModeLoad:                 "LOAD",
	ModeUnload:               "UNLOAD",
}

// String returns the mode name, or UNKNOWN(0x..) for codes outside the table.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%04X)", uint16(m))
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode looks a mode up by name.
func ParseMode(name string) (Mode, bool) {
	for m, n := range modeNames {
		if n == name {
			return m, true
		}
	}
	return 0, false
}
