package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	wallets *WalletHandler,
	transfers *TransferHandler,
	mds ...func(next http.Handler) http.Handler,
) http.Handler {
	api := http.NewServeMux()
	api.Handle("/wallets", wallets.Handler())
	api.Handle("/wallets/", wallets.Handler())
	api.Handle("/transfers", transfers.Handler())
	api.Handle("/transfers/", transfers.Handler())

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return chain(root, mds...)
}
