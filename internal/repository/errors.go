package repository

import "errors"

// ErrSaldoInsuficiente se devuelve al intentar debitar más de lo que la
// billetera tiene disponible.
var ErrSaldoInsuficiente = errors.New("saldo insuficiente en billetera")
