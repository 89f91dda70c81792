package server

import "testing"

func TestParsePortArg(t *testing.T) {
	addr, err := parsePortArg("127,0,0,1,200,13")
	if err != nil {
		t.Fatalf("parsePortArg: %v", err)
	}
	if addr.IP.String() != "127.0.0.1" || addr.Port != 200<<8|13 {
		t.Errorf("parsePortArg = %s:%d, want 127.0.0.1:%d", addr.IP, addr.Port, 200<<8|13)
	}
}

func TestParsePortArgRejectsMalformed(t *testing.T) {
	cases := []string{
		"127,0,0,1,200",        // too few fields
		"127,0,0,1,200,13,99",  // too many fields
		"127,0,0,1,200,x",      // non-numeric
		"127,0,0,256,200,13",   // octet out of range
		"127,0,0,-1,200,13",    // negative octet
		"",
	}
	for _, c := range cases {
		if _, err := parsePortArg(c); err == nil {
			t.Errorf("parsePortArg(%q): expected error, got nil", c)
		}
	}
}
