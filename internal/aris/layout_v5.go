package aris

// FileHeaderSchema is the on-disk layout of the version 5 file header (1024 bytes).
var FileHeaderSchema = NewSchema("file header", []Field{
	{"type", Bytes, 3}, // "DDF"
	{"version", U8, 1}, // 5 for ARIS; the tag and this byte together form the u32 magic DDF\x05
	{"numframes", U32, 1},
	{"framerate", U32, 1},
	{"resolution", U32, 1},
	{"numbeams", U32, 1}, // ARIS 3000 = 128/64, ARIS 1800 = 96/48, ARIS 1200 = 48
	{"samplerate", F32, 1},
	{"sampleperchannel", U32, 1}, // range bins per beam
	{"receivergain", U32, 1},
	{"windowstart", F32, 1}, // meters, per-file fallback
	{"windowlength", F32, 1},
	{"reverse", U32, 1},
	{"serialnumber", U32, 1},
	{"strdate", Bytes, 32},
	{"idstring", Bytes, 256},
	{"id1", I32, 1},
	{"id2", I32, 1},
	{"id3", I32, 1},
	{"id4", I32, 1},
	{"startframe", U32, 1},
	{"endframe", U32, 1},
	{"timelapse", U32, 1},
	{"recordinterval", U32, 1},
	{"radioseconds", U32, 1},
	{"frameinterval", U32, 1},
	{"flags", U32, 1},
	{"auxflags", U32, 1},
	{"sspd", U32, 1},
	{"flags3d", U32, 1},
	{"softwareversion", U32, 1},
	{"watertemperature", U32, 1},
	{"salinity", U32, 1},
	{"pulselength", U32, 1},
	{"txmode", U32, 1},
	{"versionfpga", U32, 1},
	{"versionpsuc", U32, 1},
	{"thumbnailfi", U32, 1},
	{"filesize", U64, 1},
	{"optionalheadersize", U64, 1},
	{"optionaltailsize", U64, 1},
	{"versionminor", U32, 1},
	{"largelens", U32, 1},
	{"userassigned", Bytes, 568},
})

// FrameHeaderSchema is the on-disk layout of the version 5 frame header (1024 bytes).
// It precedes every frame payload.
var FrameHeaderSchema = NewSchema("frame header", []Field{
	{"framenumber", U32, 1},
	{"frametime", U64, 1},
	{"version", U32, 1},
	{"status", U32, 1},
	{"sonartimestep", U64, 1},
	{"tsday", U32, 1},
	{"tshour", U32, 1},
	{"tsminute", U32, 1},
	{"tssecond", U32, 1},
	{"tshsecond", U32, 1},
	{"transmitmode", U32, 1},
	{"windowstart", F32, 1},  // meters
	{"windowlength", F32, 1}, // meters
	{"threshold", U32, 1},
	{"intensity", I32, 1},
	{"receivergain", U32, 1},
	{"degc1", U32, 1},
	{"degc2", U32, 1},
	{"humidity", U32, 1},
	{"focus", U32, 1},
	{"battery", U32, 1},
	{"uservalue1", F32, 1},
	{"uservalue2", F32, 1},
	{"uservalue3", F32, 1},
	{"uservalue4", F32, 1},
	{"uservalue5", F32, 1},
	{"uservalue6", F32, 1},
	{"uservalue7", F32, 1},
	{"uservalue8", F32, 1},
	{"velocity", F32, 1},
	{"depth", F32, 1},
	{"altitude", F32, 1},
	{"pitch", F32, 1},
	{"pitchrate", F32, 1},
	{"roll", F32, 1},
	{"rollrate", F32, 1},
	{"heading", F32, 1},
	{"headingrate", F32, 1},
	{"compassheading", F32, 1},
	{"compasspitch", F32, 1},
	{"compassroll", F32, 1},
	{"latitude", F64, 1},
	{"longitude", F64, 1},
	{"sonarposition", F32, 1},
	{"configflags", U32, 1},
	{"beamtilt", F32, 1},
	{"targetrange", F32, 1},
	{"targetbearing", F32, 1},
	{"targetpresent", U32, 1},
	{"firmwareversion", U32, 1},
	{"flags", U32, 1},
	{"sourceframe", U32, 1},
	{"watertemp", F32, 1},
	{"timerperiod", U32, 1},
	{"sonarx", F32, 1},
	{"sonary", F32, 1},
	{"sonarz", F32, 1},
	{"sonarpan", F32, 1},
	{"sonartilt", F32, 1},
	{"sonarroll", F32, 1},
	{"panpnnl", F32, 1},
	{"tiltpnnl", F32, 1},
	{"rollpnnl", F32, 1},
	{"vehicletime", F64, 1},
	{"timeggk", F32, 1},
	{"dateggk", U32, 1},
	{"qualityggk", U32, 1},
	{"numsatsggk", U32, 1},
	{"dopggk", F32, 1},
	{"ehtggk", F32, 1},
	{"heavetss", F32, 1},
	{"yeargps", U32, 1},
	{"monthgps", U32, 1},
	{"daygps", U32, 1},
	{"hourgps", U32, 1},
	{"minutegps", U32, 1},
	{"secondgps", U32, 1},
	{"hsecondgps", U32, 1},
	{"sonarpanoffset", F32, 1},
	{"sonartiltoffset", F32, 1},
	{"sonarrolloffset", F32, 1},
	{"sonarxoffset", F32, 1},
	{"sonaryoffset", F32, 1},
	{"sonarzoffset", F32, 1},
	{"tmatrix", F32, 16},
	{"samplerate", F32, 1},
	{"accellx", F32, 1},
	{"accelly", F32, 1},
	{"accellz", F32, 1},
	{"pingmode", U32, 1},
	{"frequencyhilow", U32, 1},
	{"pulsewidth", U32, 1},
	{"cycleperiod", U32, 1},
	{"sampleperiod", U32, 1},
	{"transmitenable", F32, 1},
	{"framerate", F32, 1}, // frames per second
	{"soundspeed", F32, 1},
	{"samplesperbeam", U32, 1},
	{"enable150v", U32, 1},
	{"samplestartdelay", U32, 1},
	{"largelens", U32, 1},
	{"thesystemtype", U32, 1},
	{"sonarserianumber", U32, 1},
	{"encryptedkey", U64, 1},
	{"ariserrorflagsuint", U32, 1},
	{"missedpackets", U32, 1},
	{"arisappversion", U32, 1},
	{"available2", U32, 1},
	{"reorderedsamples", U32, 1},
	{"salinity", U32, 1},
	{"pressure", F32, 1},
	{"batteryvoltage", F32, 1},
	{"mainvoltage", F32, 1},
	{"switchvoltage", F32, 1},
	{"focusmotormoving", U32, 1},
	{"voltagechanging", U32, 1},
	{"focustimeoutfault", U32, 1},
	{"focusovercurrentfault", U32, 1},
	{"focusnotfoundfault", U32, 1},
	{"focusstalledfault", U32, 1},
	{"fpgatimeoutfault", U32, 1},
	{"fpgabusyfault", U32, 1},
	{"fpgastuckfault", U32, 1},
	{"cputempfault", U32, 1},
	{"psutempfault", U32, 1},
	{"watertempfault", U32, 1},
	{"humidityfault", U32, 1},
	{"pressurefault", U32, 1},
	{"voltagereadfault", U32, 1},
	{"voltagewritefault", U32, 1},
	{"focuscurrentposition", U32, 1},
	{"targetpan", F32, 1},
	{"targettilt", F32, 1},
	{"targetroll", F32, 1},
	{"panmotorerrorcode", U32, 1},
	{"tiltmotorerrorcode", U32, 1},
	{"rollmotorerrorcode", U32, 1},
	{"panabsposition", F32, 1},
	{"tiltabsposition", F32, 1},
	{"rollabsposition", F32, 1},
	{"panaccelx", F32, 1},
	{"panaccely", F32, 1},
	{"panaccelz", F32, 1},
	{"tiltaccelx", F32, 1},
	{"tiltaccely", F32, 1},
	{"tiltaccelz", F32, 1},
	{"rollaccelx", F32, 1},
	{"rollaccely", F32, 1},
	{"rollaccelz", F32, 1},
	{"appliedsettings", U32, 1},
	{"constrainedsettings", U32, 1},
	{"invalidsettings", U32, 1},
	{"enableinterpacketdelay", U32, 1},
	{"interpacketdelayperiod", U32, 1},
	{"uptime", U32, 1},
	{"arisappversionmajor", U16, 1},
	{"arisappversionminor", U16, 1},
	{"gotime", U64, 1},
	{"panvelocity", F32, 1},
	{"tiltvelocity", F32, 1},
	{"rollvelocity", F32, 1},
	{"sentinel", U32, 1},
	{"userassigned", Bytes, 292},
})
