// Package isobus implements the slice of J1939/ISO 11783 addressing and
// process-data messaging the task controller core needs to talk to an
// implement over a CAN bus: a NAME/address-claim stub, a condensed
// process-data message format, and a chunked pool-transfer scheme,
// wrapping github.com/brutella/can for the physical layer. It is
// deliberately not a general ISO 11783 stack — every simplification is
// recorded in DESIGN.md.
package isobus

import "fmt"

// NAME is the 64-bit ISO 11783 control-function identity: a
// self-configurable-address bit, industry group, vehicle-system
// instance, function, function instance, ECU instance, manufacturer
// code and identity number, packed per J1939.
type NAME uint64

// String renders a NAME as a fixed-width hex identity, used by log lines
// and the status web UI.
func (n NAME) String() string {
	return fmt.Sprintf("%#016x", uint64(n))
}

const (
	nameShiftIdentityNumber   = 0
	nameShiftManufacturerCode = 21
	nameShiftECUInstance      = 32
	nameShiftFunctionInstance = 35
	nameShiftFunction         = 40
	nameShiftReserved         = 48
	nameShiftVehicleSystem    = 49
	nameShiftIndustryGroup    = 56
	nameShiftSelfConfigurable = 63
)

// IndustryGroupAgricultural is the J1939 industry group for agricultural
// and forestry equipment, used by the task controller's own NAME.
const IndustryGroupAgricultural = 2

// FunctionTaskController is the ISO 11783 function code for a task
// controller control function.
const FunctionTaskController = 128

// NameParams describes the fields used to build a NAME.
type NameParams struct {
	SelfConfigurable  bool
	IndustryGroup     uint8
	VehicleSystem     uint8
	Function          uint8
	FunctionInstance  uint8
	ECUInstance       uint8
	ManufacturerCode  uint16
	IdentityNumber    uint32
}

// BuildNAME packs p into a NAME value.
func BuildNAME(p NameParams) NAME {
	var n uint64

	n |= uint64(p.IdentityNumber&0x1FFFFF) << nameShiftIdentityNumber
	n |= uint64(p.ManufacturerCode&0x7FF) << nameShiftManufacturerCode
	n |= uint64(p.ECUInstance&0x07) << nameShiftECUInstance
	n |= uint64(p.FunctionInstance&0x1F) << nameShiftFunctionInstance
	n |= uint64(p.Function) << nameShiftFunction
	n |= uint64(p.VehicleSystem&0x7F) << nameShiftVehicleSystem
	n |= uint64(p.IndustryGroup&0x07) << nameShiftIndustryGroup
	if p.SelfConfigurable {
		n |= 1 << nameShiftSelfConfigurable
	}

	return NAME(n)
}

// TaskControllerName builds this server's own fixed NAME: industry group
// agricultural/forestry, function TaskController, function instance 0.
func TaskControllerName(manufacturerCode uint16, identityNumber uint32) NAME {
	return BuildNAME(NameParams{
		SelfConfigurable: true,
		IndustryGroup:    IndustryGroupAgricultural,
		Function:         FunctionTaskController,
		FunctionInstance: 0,
		ManufacturerCode: manufacturerCode,
		IdentityNumber:   identityNumber,
	})
}

// PartnerID is the stable key ClientState is stored by: a partner's
// NAME, never an owning pointer into the CAN stack's own bookkeeping.
type PartnerID = NAME
