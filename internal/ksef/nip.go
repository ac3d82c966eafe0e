package ksef

var nipWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// ValidNIPChecksum reports whether a 10 digit NIP carries a correct control
// digit. A weighted sum that leaves remainder 10 is never valid.
func ValidNIPChecksum(nip string) bool {
	if len(nip) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		if nip[i] < '0' || nip[i] > '9' {
			return false
		}
		if i < 9 {
			sum += int(nip[i]-'0') * nipWeights[i]
		}
	}
	check := sum % 11
	return check != 10 && check == int(nip[9]-'0')
}
