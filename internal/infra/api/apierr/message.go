package apierr

import "net/http"

// UserMessage renders err as text suitable for an end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	e, ok := As(err)
	if !ok {
		return "Something went wrong. Please try again."
	}

	switch e.Kind {
	case KindHTTP:
		switch e.Status {
		case http.StatusNotFound:
			return "The requested item was not found."
		case http.StatusBadRequest:
			return "The request was invalid. Please check your filters and try again."
		case http.StatusTooManyRequests:
			return "Too many requests. Please wait a moment and try again."
		default:
			return "The request could not be completed."
		}
	case KindServer:
		return "The server is having trouble right now. Please try again later."
	case KindNetwork:
		if e.Canceled() {
			return ""
		}
		if e.Code == CodeTimeout {
			return "The server took too long to respond. Please try again."
		}
		return "Unable to reach the server. Check your internet connection."
	case KindAPI:
		return e.Message
	case KindUnknown:
		return "Something went wrong. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
