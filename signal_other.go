//go:build !unix

package pigpio

func signalName(int) string {
	return ""
}
