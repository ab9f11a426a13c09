package migs

// SuccessCode is the only transaction response code that means the payment
// was approved.
const SuccessCode = "0"

// NoValueReturned is the sentinel used when the gateway omitted a field.
const NoValueReturned = "No Value Returned"

const unableToDetermine = "Unable to be determined"

var responseDescriptions = map[string]string{
	"0": "Transaction Successful",
	"?": "Transaction status is unknown",
	"1": "Unknown Error",
	"2": "Bank Declined Transaction",
	"3": "No Reply from Bank",
	"4": "Expired Card",
	"5": "Insufficient funds",
	"6": "Error Communicating with Bank",
	"7": "Payment Server System Error",
	"8": "Transaction Type Not Supported",
	"9": "Bank declined transaction (Do not contact Bank)",
	"A": "Transaction Aborted",
	"C": "Transaction Cancelled",
	"D": "Deferred transaction has been received and is awaiting processing",
	"F": "3D Secure Authentication failed",
	"I": "Card Security Code verification failed",
	"L": "Shopping Transaction Locked (Please try the transaction again later)",
	"N": "Cardholder is not enrolled in Authentication scheme",
	"P": "Transaction has been received by the Payment Adaptor and is being processed",
	"R": "Transaction was not processed - Reached limit of retry attempts allowed",
	"S": "Duplicate SessionID (OrderInfo)",
	"T": "Address Verification Failed",
	"U": "Card Security Code Failed",
	"V": "Address Verification and Card Security Code Failed",
}

var authStatusDescriptions = map[string]string{
	"Y": "The cardholder was successfully authenticated.",
	"E": "The cardholder is not enrolled.",
	"N": "The cardholder was not verified.",
	"U": "The cardholder's Issuer was unable to authenticate due to some system error at the Issuer.",
	"F": "There was an error in the format of the request from the merchant.",
	"A": "Authentication of your Merchant ID and Password to the ACS Directory Failed.",
	"D": "Error communicating with the Directory Server.",
	"C": "The card type is not supported for authentication.",
	"S": "The signature on the response received from the Issuer could not be validated.",
	"P": "Error parsing input from Issuer.",
	"I": "Internal Payment Server system error.",
}

// ResponseDescription maps a transaction response code to its human-readable
// outcome. Unrecognised codes map to a generic fallback.
func ResponseDescription(code string) string {
	if desc, ok := responseDescriptions[code]; ok {
		return desc
	}
	return unableToDetermine
}

// AuthStatusDescription maps a 3-D Secure authentication status to its
// description. A blank status means the card never entered 3DS.
func AuthStatusDescription(status string) string {
	if status == "" || status == NoValueReturned {
		return "3DS not supported or there was no 3DS data provided"
	}
	if desc, ok := authStatusDescriptions[status]; ok {
		return desc
	}
	return unableToDetermine
}

// OrDefault substitutes the no-value sentinel for blank gateway fields.
func OrDefault(value string) string {
	if value == "" {
		return NoValueReturned
	}
	return value
}
