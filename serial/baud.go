package serial

import "fmt"

// baudRates maps a numeric baud rate to its termios CFlag constant, for
// callers that carry the rate as a plain integer (e.g. from a config
// file) rather than a compile-time constant.
var baudRates = map[uint32]CFlag{
	50:      B50,
	75:      B75,
	110:     B110,
	134:     B134,
	150:     B150,
	200:     B200,
	300:     B300,
	600:     B600,
	1200:    B1200,
	1800:    B1800,
	2400:    B2400,
	4800:    B4800,
	9600:    B9600,
	19200:   B19200,
	38400:   B38400,
	57600:   B57600,
	115200:  B115200,
	230400:  B230400,
	460800:  B460800,
	500000:  B500000,
	576000:  B576000,
	921600:  B921600,
	1000000: B1000000,
	1152000: B1152000,
	1500000: B1500000,
	2000000: B2000000,
}

// BaudToCFlag resolves a numeric baud rate to the CFlag termios expects.
func BaudToCFlag(rate uint32) (CFlag, error) {
	c, ok := baudRates[rate]
	if !ok {
		return 0, fmt.Errorf("serial: unsupported baud rate %d", rate)
	}
	return c, nil
}
