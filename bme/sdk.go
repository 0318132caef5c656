// +build bmesdk

package bme

/*
#cgo windows LDFLAGS: -lDelayGenerator
#cgo linux LDFLAGS: -L/usr/local/lib -lDelayGenerator
#include <stdbool.h>

// prototypes from the BME_G0X help, "DLL functions" chapter
long Reserve_DG_Data(long);
long DetectPciDelayGenerators(long*);
long GetPciDelayGenerator(long*, long*, bool*, long);
long Initialize_DG_BME(long, long, long);
long Deactivate_DG_BME(long);
long Activate_DG_BME(long);
long Set_GateFunction(unsigned long, long);
long Set_TriggerParameters(bool, double, double, unsigned long, unsigned long,
	bool, bool, bool, bool, bool, bool, bool, bool, long);
long Set_ResetWhenDone(bool, long);
unsigned long Read_DG_Status(long);
long Set_G08_Delay(unsigned long, double, double, unsigned long, unsigned long,
	unsigned long, bool, bool, bool, bool, bool, long);
long Set_G08_ClockParameters(bool, unsigned long, unsigned long, unsigned long,
	unsigned long, long);
long Set_G08_TriggerParameters(bool, double, double, bool, bool, double, double,
	unsigned long, unsigned long, long);
*/
import "C"

// SDK is the Library backed by the vendor DelayGenerator shared library
type SDK struct{}

// NewSDK returns the Library bound to the vendor SDK
func NewSDK() (Library, error) {
	return SDK{}, nil
}

func cbool(b bool) C.bool {
	return C.bool(b)
}

func (SDK) ReserveDGData(count int) int {
	return int(C.Reserve_DG_Data(C.long(count)))
}

func (SDK) DetectPCIDelayGenerators() (int, int) {
	var status C.long
	n := C.DetectPciDelayGenerators(&status)
	return int(n), int(status)
}

func (SDK) GetPCIDelayGenerator(idx int) (CardIdentity, int) {
	var (
		product C.long = -1
		slot    C.long = -1
		master  C.bool
	)
	status := C.GetPciDelayGenerator(&product, &slot, &master, C.long(idx))
	return CardIdentity{ProductID: int(product), SlotID: int(slot), IsMaster: bool(master)}, int(status)
}

func (SDK) InitializeDG(slotID, productID, idx int) int {
	return int(C.Initialize_DG_BME(C.long(slotID), C.long(productID), C.long(idx)))
}

func (SDK) DeactivateDG(idx int) int {
	return int(C.Deactivate_DG_BME(C.long(idx)))
}

func (SDK) ActivateDG(idx int) int {
	return int(C.Activate_DG_BME(C.long(idx)))
}

func (SDK) SetGateFunction(flags uint32, idx int) int {
	return int(C.Set_GateFunction(C.ulong(flags), C.long(idx)))
}

func (SDK) SetTriggerParameters(p TriggerParameters, idx int) int {
	return int(C.Set_TriggerParameters(
		cbool(p.Terminate50Ohm),
		C.double(p.InhibitUs),
		C.double(p.LevelV),
		C.ulong(p.PresetValue),
		C.ulong(p.GateDivider),
		cbool(p.GatePositiveEdge),
		cbool(p.InternalTrigger),
		cbool(p.InternalArm),
		cbool(p.SoftwareTrigger),
		cbool(p.ExternalTrigger),
		cbool(p.StopOnPreset),
		cbool(p.ResetWhenDone),
		cbool(p.IgnoreGate),
		C.long(idx)))
}

func (SDK) SetResetWhenDone(reset bool, idx int) int {
	return int(C.Set_ResetWhenDone(cbool(reset), C.long(idx)))
}

func (SDK) ReadDGStatus(idx int) uint32 {
	return uint32(C.Read_DG_Status(C.long(idx)))
}

func (SDK) SetG08Delay(channel int, d ChannelDelay, idx int) int {
	return int(C.Set_G08_Delay(
		C.ulong(channel),
		C.double(d.DelayUs),
		C.double(d.WidthUs),
		C.ulong(d.ModuloLength),
		C.ulong(d.ModuloOffset),
		C.ulong(d.TriggerSource),
		cbool(d.PositivePulse),
		cbool(d.Terminate50Ohm),
		cbool(d.HighImpedance),
		cbool(d.OntoMSBus),
		cbool(d.InputPositive),
		C.long(idx)))
}

func (SDK) SetG08ClockParameters(p ClockParameters, idx int) int {
	return int(C.Set_G08_ClockParameters(
		cbool(p.ClockEnable),
		C.ulong(p.OscillatorDivider),
		C.ulong(p.TriggerDivider),
		C.ulong(p.TriggerMultiplier),
		C.ulong(p.ClockSource),
		C.long(idx)))
}

func (SDK) SetG08TriggerParameters(p CardTriggerParameters, idx int) int {
	return int(C.Set_G08_TriggerParameters(
		cbool(p.GateTerminate),
		C.double(p.GateLevelV),
		C.double(p.GateDelayUs),
		cbool(p.IgnoreGate),
		cbool(p.SynchronizeGate),
		C.double(p.ForceTriggerUs),
		C.double(p.StepBackUs),
		C.ulong(p.BurstCounter),
		C.ulong(p.Flags),
		C.long(idx)))
}
