package bluetoothutil

import "testing"

func TestMergeDiscoveredDevice(t *testing.T) {
	existing := DiscoveredDevice{Name: "WH", Address: "AA:BB", RSSI: -80}
	next := DiscoveredDevice{Name: "WH-1000XM4", Address: "AA:BB", RSSI: -60, AudioCapable: true}

	merged := mergeDiscoveredDevice(existing, next)
	if merged.Name != "WH-1000XM4" {
		t.Errorf("expected longer name kept, got %q", merged.Name)
	}
	if merged.RSSI != -60 {
		t.Errorf("expected strongest RSSI kept, got %d", merged.RSSI)
	}
	if !merged.AudioCapable {
		t.Error("audio capability lost in merge")
	}

	weaker := mergeDiscoveredDevice(merged, DiscoveredDevice{Address: "AA:BB", RSSI: -90})
	if weaker.RSSI != -60 || weaker.Name != "WH-1000XM4" {
		t.Errorf("weaker reading overwrote stronger: %+v", weaker)
	}
}

func TestSortDiscoveredDevices(t *testing.T) {
	devices := []DiscoveredDevice{
		{Name: "beacon", Address: "03", RSSI: -40},
		{Name: "speaker", Address: "02", RSSI: -70, AudioCapable: true},
		{Name: "headset", Address: "01", RSSI: -50, AudioCapable: true},
	}

	sortDiscoveredDevices(devices)

	want := []string{"headset", "speaker", "beacon"}
	for i, name := range want {
		if devices[i].Name != name {
			t.Fatalf("position %d = %q, want %q (order %+v)", i, devices[i].Name, name, devices)
		}
	}
}

func TestNormalizeAddress(t *testing.T) {
	if got := NormalizeAddress(" f4:73:35:8b:70:51 "); got != "F4:73:35:8B:70:51" {
		t.Errorf("NormalizeAddress = %q", got)
	}
}
