package cicp

// Loudspeaker layouts indexed by CICP ChannelConfiguration value.
// Index 8 (two independent mono channels) is not a loudspeaker layout and is absent.
//
//nolint:gochecknoglobals
var layouts = map[int][]Label{
	1:  {M000},
	2:  {ML030, MR030},
	3:  {ML030, MR030, M000},
	4:  {ML030, MR030, M000, M180},
	5:  {ML030, MR030, M000, ML110, MR110},
	6:  {ML030, MR030, M000, LFE1, ML110, MR110},
	7:  {M000, ML030, MR030, ML060, MR060, ML110, MR110, LFE1},
	9:  {ML030, MR030, M180},
	10: {ML030, MR030, ML110, MR110},
	11: {ML030, MR030, M000, LFE1, ML110, MR110, M180},
	12: {ML030, MR030, M000, LFE1, ML110, MR110, ML135, MR135},
	13: {
		ML060, MR060, M000, LFE1, ML135, MR135, ML030, MR030, M180, LFE2, ML090, MR090,
		UL045, UR045, U000, T000, UL135, UR135, UL090, UR090, U180, L000, LL045, LR045,
	},
	14: {ML030, MR030, M000, LFE1, ML110, MR110, UL030, UR030},
	15: {ML030, MR030, M000, LFE1, ML110, MR110, LFE2, UL030, UR030, U000, UL110, UR110},
	16: {ML030, MR030, M000, LFE1, ML110, MR110, UL030, UR030, UL110, UR110},
	17: {ML030, MR030, M000, LFE1, ML110, MR110, UL030, UR030, U000, UL110, UR110, T000},
	18: {ML030, MR030, M000, LFE1, ML110, MR110, ML135, MR135, UL030, UR030, U000, UL110, UR110, T000},
	19: {ML030, MR030, M000, LFE1, ML135, MR135, ML090, MR090, UL030, UR030, UL135, UR135},
	20: {ML030, MR030, M000, LFE1, ML135, MR135, ML090, MR090, UL045, UR045, UL135, UR135, ML060, MR060},
}

//nolint:gochecknoglobals
var layoutNames = map[int]string{
	1:  "1.0 mono",
	2:  "2.0 stereo",
	3:  "3.0",
	4:  "4.0",
	5:  "5.0",
	6:  "5.1",
	7:  "7.1 front",
	9:  "2.1 surround",
	10: "2.2 quad",
	11: "6.1",
	12: "7.1 rear",
	13: "22.2",
	14: "5.1+2H",
	15: "10.2",
	16: "5.1+4H",
	17: "6.1+5H+T",
	18: "7.1+5H+T",
	19: "7.1+4H",
	20: "9.1+4H",
}
